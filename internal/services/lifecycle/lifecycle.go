// Package lifecycle holds the contract/workspace state transitions that used
// to be spread across save paths: offer acceptance, contract activation,
// workspace creation and the dual-completion cascade. Every function takes the
// caller's transaction so a cascade either fully applies or not at all.
package lifecycle

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/models"
)

var ErrNoEngagement = errors.New("contract has no linked proposal or job application")

// AcceptProposal performs the acceptance of a proposal inside tx: rejects
// sibling pending proposals, marks this one accepted, moves the project to
// in_progress and gets-or-creates the contract keyed by the proposal.
func AcceptProposal(tx *gorm.DB, proposal *models.Proposal, project *models.Project) (*models.Contract, bool, error) {
	if err := tx.Model(&models.Proposal{}).
		Where("project_id = ? AND status = ? AND id <> ?", project.ID, models.OfferStatusPending, proposal.ID).
		Update("status", models.OfferStatusRejected).Error; err != nil {
		return nil, false, err
	}

	proposal.Status = models.OfferStatusAccepted
	if err := tx.Save(proposal).Error; err != nil {
		return nil, false, err
	}

	if project.Status != models.EngagementStatusInProgress {
		project.Status = models.EngagementStatusInProgress
		if err := tx.Save(project).Error; err != nil {
			return nil, false, err
		}
	}

	var contract models.Contract
	err := tx.Where("proposal_id = ?", proposal.ID).First(&contract).Error
	if err == nil {
		return &contract, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	contract = models.Contract{
		ProposalID:   &proposal.ID,
		ClientID:     project.ClientID,
		FreelancerID: proposal.FreelancerID,
		Terms:        "Project terms as discussed",
		PaymentTerms: "Payment on completion",
		Status:       models.ContractStatusPending,
	}
	if err := tx.Create(&contract).Error; err != nil {
		return nil, false, err
	}
	return &contract, true, nil
}

// AcceptApplication is the job-side counterpart of AcceptProposal.
func AcceptApplication(tx *gorm.DB, application *models.JobApplication, job *models.Job) (*models.Contract, bool, error) {
	if err := tx.Model(&models.JobApplication{}).
		Where("job_id = ? AND status = ? AND id <> ?", job.ID, models.OfferStatusPending, application.ID).
		Update("status", models.OfferStatusRejected).Error; err != nil {
		return nil, false, err
	}

	application.Status = models.OfferStatusAccepted
	if err := tx.Save(application).Error; err != nil {
		return nil, false, err
	}

	if job.Status != models.EngagementStatusInProgress {
		job.Status = models.EngagementStatusInProgress
		if err := tx.Save(job).Error; err != nil {
			return nil, false, err
		}
	}

	var contract models.Contract
	err := tx.Where("job_application_id = ?", application.ID).First(&contract).Error
	if err == nil {
		return &contract, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	contract = models.Contract{
		JobApplicationID: &application.ID,
		ClientID:         job.ClientID,
		FreelancerID:     application.FreelancerID,
		Terms:            "Job terms as discussed",
		PaymentTerms:     "Payment on completion",
		Status:           models.ContractStatusPending,
	}
	if err := tx.Create(&contract).Error; err != nil {
		return nil, false, err
	}
	return &contract, true, nil
}

// ActivateIfSigned flips a pending contract to active once both parties have
// signed. Idempotent: repeated calls after activation are no-ops.
func ActivateIfSigned(tx *gorm.DB, contract *models.Contract) (bool, error) {
	if !contract.IsFullySigned() || contract.Status != models.ContractStatusPending {
		return false, nil
	}
	contract.Status = models.ContractStatusActive
	if err := tx.Save(contract).Error; err != nil {
		return false, err
	}
	return true, nil
}

// EnsureWorkspace creates the contract's workspace the first time the contract
// is observed fully signed and active. Guards short-circuit in order: existing
// workspace, signatures, status. Must be invoked from every path that can
// change signatures or status.
func EnsureWorkspace(tx *gorm.DB, contract *models.Contract) (*models.Workspace, bool, error) {
	var existing models.Workspace
	err := tx.Where("contract_id = ?", contract.ID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if !contract.IsFullySigned() {
		return nil, false, nil
	}
	if contract.Status != models.ContractStatusActive {
		return nil, false, nil
	}

	ws := models.Workspace{ContractID: contract.ID}
	if err := tx.Create(&ws).Error; err != nil {
		return nil, false, err
	}
	return &ws, true, nil
}

// CompleteWorkspace runs the dual-completion cascade: stamps completed_at once,
// completes the contract and completes the originating engagement. Safe to
// re-run; each step checks its own target state.
func CompleteWorkspace(tx *gorm.DB, workspace *models.Workspace, contract *models.Contract) error {
	if !workspace.IsFullyCompleted() {
		return nil
	}

	if workspace.CompletedAt == nil {
		now := time.Now()
		workspace.CompletedAt = &now
		if err := tx.Save(workspace).Error; err != nil {
			return err
		}
	}

	if contract.Status != models.ContractStatusCompleted {
		contract.Status = models.ContractStatusCompleted
		if err := tx.Save(contract).Error; err != nil {
			return err
		}
	}

	return CompleteEngagement(tx, contract)
}

// CompleteEngagement resolves the contract's originating project or job and
// marks it completed if it is not already.
func CompleteEngagement(tx *gorm.DB, contract *models.Contract) error {
	switch {
	case contract.ProposalID != nil:
		var proposal models.Proposal
		if err := tx.First(&proposal, "id = ?", contract.ProposalID).Error; err != nil {
			return err
		}
		return tx.Model(&models.Project{}).
			Where("id = ? AND status <> ?", proposal.ProjectID, models.EngagementStatusCompleted).
			Update("status", models.EngagementStatusCompleted).Error

	case contract.JobApplicationID != nil:
		var application models.JobApplication
		if err := tx.First(&application, "id = ?", contract.JobApplicationID).Error; err != nil {
			return err
		}
		return tx.Model(&models.Job{}).
			Where("id = ? AND status <> ?", application.JobID, models.EngagementStatusCompleted).
			Update("status", models.EngagementStatusCompleted).Error
	}

	return ErrNoEngagement
}

// EngagementTitle returns the title of the project or job behind a contract,
// for notification text.
func EngagementTitle(db *gorm.DB, contract *models.Contract) string {
	switch {
	case contract.ProposalID != nil:
		var proposal models.Proposal
		if err := db.Preload("Project").First(&proposal, "id = ?", contract.ProposalID).Error; err == nil && proposal.Project != nil {
			return proposal.Project.Title
		}
	case contract.JobApplicationID != nil:
		var application models.JobApplication
		if err := db.Preload("Job").First(&application, "id = ?", contract.JobApplicationID).Error; err == nil && application.Job != nil {
			return application.Job.Title
		}
	}
	return "Contract " + contract.ID.String()
}
