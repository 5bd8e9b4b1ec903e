package lifecycle_test

import (
	"testing"

	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/services/lifecycle"
	"github.com/talentlink/talentlink/internal/testutil"
)

func seedProjectWithProposals(t *testing.T, db *gorm.DB) (*models.Project, *models.Proposal, *models.Proposal) {
	t.Helper()

	client := testutil.CreateUser(t, db, "client", models.RoleClient)
	f1 := testutil.CreateUser(t, db, "freelancer1", models.RoleFreelancer)
	f2 := testutil.CreateUser(t, db, "freelancer2", models.RoleFreelancer)

	project := models.Project{
		ClientID: client.ID,
		Title:    "Build a website",
		Status:   models.EngagementStatusOpen,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatal(err)
	}

	p1 := models.Proposal{ProjectID: project.ID, FreelancerID: f1.ID, BidAmount: 1000, Status: models.OfferStatusPending}
	p2 := models.Proposal{ProjectID: project.ID, FreelancerID: f2.ID, BidAmount: 1200, Status: models.OfferStatusPending}
	if err := db.Create(&p1).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&p2).Error; err != nil {
		t.Fatal(err)
	}
	return &project, &p1, &p2
}

func TestAcceptProposalRejectsSiblings(t *testing.T) {
	db := testutil.OpenDB(t)
	project, p1, p2 := seedProjectWithProposals(t, db)

	contract, created, err := lifecycle.AcceptProposal(db, p1, project)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !created {
		t.Error("expected contract to be created on first accept")
	}
	if p1.Status != models.OfferStatusAccepted {
		t.Errorf("accepted proposal has status %s", p1.Status)
	}
	if project.Status != models.EngagementStatusInProgress {
		t.Errorf("project status = %s, want in_progress", project.Status)
	}

	var sibling models.Proposal
	if err := db.First(&sibling, "id = ?", p2.ID).Error; err != nil {
		t.Fatal(err)
	}
	if sibling.Status != models.OfferStatusRejected {
		t.Errorf("sibling proposal status = %s, want rejected", sibling.Status)
	}

	if contract.ProposalID == nil || *contract.ProposalID != p1.ID {
		t.Error("contract not keyed by accepted proposal")
	}
	if contract.Status != models.ContractStatusPending {
		t.Errorf("new contract status = %s, want pending", contract.Status)
	}
}

func TestAcceptProposalIsIdempotentOnContract(t *testing.T) {
	db := testutil.OpenDB(t)
	project, p1, _ := seedProjectWithProposals(t, db)

	first, created, err := lifecycle.AcceptProposal(db, p1, project)
	if err != nil || !created {
		t.Fatalf("first accept: created=%v err=%v", created, err)
	}

	second, created, err := lifecycle.AcceptProposal(db, p1, project)
	if err != nil {
		t.Fatalf("second accept: %v", err)
	}
	if created {
		t.Error("second accept must not create another contract")
	}
	if second.ID != first.ID {
		t.Error("second accept returned a different contract")
	}

	var count int64
	db.Model(&models.Contract{}).Count(&count)
	if count != 1 {
		t.Errorf("contract count = %d, want 1", count)
	}
}

func signedContract(t *testing.T, db *gorm.DB) *models.Contract {
	t.Helper()

	project, p1, _ := seedProjectWithProposals(t, db)
	contract, _, err := lifecycle.AcceptProposal(db, p1, project)
	if err != nil {
		t.Fatal(err)
	}
	contract.ClientSigned = true
	contract.FreelancerSigned = true
	if err := db.Save(contract).Error; err != nil {
		t.Fatal(err)
	}
	return contract
}

func TestActivateIfSigned(t *testing.T) {
	db := testutil.OpenDB(t)
	contract := signedContract(t, db)

	activated, err := lifecycle.ActivateIfSigned(db, contract)
	if err != nil {
		t.Fatal(err)
	}
	if !activated {
		t.Error("expected activation with both signatures")
	}
	if contract.Status != models.ContractStatusActive {
		t.Errorf("contract status = %s, want active", contract.Status)
	}

	// Second call is a no-op.
	activated, err = lifecycle.ActivateIfSigned(db, contract)
	if err != nil {
		t.Fatal(err)
	}
	if activated {
		t.Error("already-active contract must not re-activate")
	}
}

func TestActivateRequiresBothSignatures(t *testing.T) {
	db := testutil.OpenDB(t)
	project, p1, _ := seedProjectWithProposals(t, db)
	contract, _, err := lifecycle.AcceptProposal(db, p1, project)
	if err != nil {
		t.Fatal(err)
	}
	contract.ClientSigned = true

	activated, err := lifecycle.ActivateIfSigned(db, contract)
	if err != nil {
		t.Fatal(err)
	}
	if activated {
		t.Error("half-signed contract must not activate")
	}
	if contract.Status != models.ContractStatusPending {
		t.Errorf("contract status = %s, want pending", contract.Status)
	}
}

func TestEnsureWorkspaceCreatesOnce(t *testing.T) {
	db := testutil.OpenDB(t)
	contract := signedContract(t, db)
	if _, err := lifecycle.ActivateIfSigned(db, contract); err != nil {
		t.Fatal(err)
	}

	ws, created, err := lifecycle.EnsureWorkspace(db, contract)
	if err != nil {
		t.Fatal(err)
	}
	if !created || ws == nil {
		t.Fatal("expected workspace creation for fully signed active contract")
	}

	again, created, err := lifecycle.EnsureWorkspace(db, contract)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second ensure must not create another workspace")
	}
	if again.ID != ws.ID {
		t.Error("second ensure returned a different workspace")
	}

	var count int64
	db.Model(&models.Workspace{}).Count(&count)
	if count != 1 {
		t.Errorf("workspace count = %d, want 1", count)
	}
}

func TestEnsureWorkspaceGuards(t *testing.T) {
	db := testutil.OpenDB(t)
	project, p1, _ := seedProjectWithProposals(t, db)
	contract, _, err := lifecycle.AcceptProposal(db, p1, project)
	if err != nil {
		t.Fatal(err)
	}

	// Unsigned pending contract: no workspace.
	ws, created, err := lifecycle.EnsureWorkspace(db, contract)
	if err != nil {
		t.Fatal(err)
	}
	if created || ws != nil {
		t.Error("unsigned contract must not get a workspace")
	}

	// Signed but still pending: no workspace either.
	contract.ClientSigned = true
	contract.FreelancerSigned = true
	ws, created, err = lifecycle.EnsureWorkspace(db, contract)
	if err != nil {
		t.Fatal(err)
	}
	if created || ws != nil {
		t.Error("non-active contract must not get a workspace")
	}
}

func TestCompletionCascade(t *testing.T) {
	db := testutil.OpenDB(t)
	contract := signedContract(t, db)
	if _, err := lifecycle.ActivateIfSigned(db, contract); err != nil {
		t.Fatal(err)
	}
	ws, _, err := lifecycle.EnsureWorkspace(db, contract)
	if err != nil {
		t.Fatal(err)
	}

	// One flag only: nothing happens.
	ws.ClientMarkedComplete = true
	if err := db.Save(ws).Error; err != nil {
		t.Fatal(err)
	}
	if err := lifecycle.CompleteWorkspace(db, ws, contract); err != nil {
		t.Fatal(err)
	}
	if ws.CompletedAt != nil {
		t.Error("completed_at must stay nil until both parties confirm")
	}
	if contract.Status != models.ContractStatusActive {
		t.Errorf("contract status = %s, want active", contract.Status)
	}

	// Both flags: full cascade.
	ws.FreelancerMarkedComplete = true
	if err := db.Save(ws).Error; err != nil {
		t.Fatal(err)
	}
	if err := lifecycle.CompleteWorkspace(db, ws, contract); err != nil {
		t.Fatal(err)
	}
	if ws.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}
	if contract.Status != models.ContractStatusCompleted {
		t.Errorf("contract status = %s, want completed", contract.Status)
	}

	var proposal models.Proposal
	if err := db.First(&proposal, "id = ?", contract.ProposalID).Error; err != nil {
		t.Fatal(err)
	}
	var project models.Project
	if err := db.First(&project, "id = ?", proposal.ProjectID).Error; err != nil {
		t.Fatal(err)
	}
	if project.Status != models.EngagementStatusCompleted {
		t.Errorf("project status = %s, want completed", project.Status)
	}

	// Re-running the cascade must not move completed_at.
	stamped := *ws.CompletedAt
	if err := lifecycle.CompleteWorkspace(db, ws, contract); err != nil {
		t.Fatal(err)
	}
	if !ws.CompletedAt.Equal(stamped) {
		t.Error("completed_at changed on cascade re-run")
	}
}

func TestCompleteEngagementWithoutOrigin(t *testing.T) {
	db := testutil.OpenDB(t)
	client := testutil.CreateUser(t, db, "client", models.RoleClient)
	freelancer := testutil.CreateUser(t, db, "freelancer", models.RoleFreelancer)

	contract := models.Contract{
		ClientID:     client.ID,
		FreelancerID: freelancer.ID,
		Status:       models.ContractStatusActive,
	}
	if err := db.Create(&contract).Error; err != nil {
		t.Fatal(err)
	}

	if err := lifecycle.CompleteEngagement(db, &contract); err != lifecycle.ErrNoEngagement {
		t.Errorf("err = %v, want ErrNoEngagement", err)
	}
}
