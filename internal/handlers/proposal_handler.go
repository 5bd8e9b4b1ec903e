package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/services/lifecycle"
	"github.com/talentlink/talentlink/internal/services/notify"
)

type ProposalHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
}

func NewProposalHandler(db *gorm.DB, n *notify.Service) *ProposalHandler {
	return &ProposalHandler{DB: db, Notify: n}
}

type ProposalReq struct {
	ProjectID     string `json:"project_id"`
	CoverLetter   string `json:"cover_letter"`
	BidAmount     int64  `json:"bid_amount"`
	EstimatedTime string `json:"estimated_time"`
}

func (h *ProposalHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	var req ProposalReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.BidAmount <= 0 {
		return fail(c, fiber.StatusBadRequest, "Bid amount must be positive")
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", req.ProjectID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Project not found")
	}

	if project.Status != models.EngagementStatusOpen {
		return fail(c, fiber.StatusBadRequest, "This project is no longer accepting proposals")
	}

	var existing models.Proposal
	if err := h.DB.Where("project_id = ? AND freelancer_id = ?", project.ID, userID).
		First(&existing).Error; err == nil {
		return fail(c, fiber.StatusBadRequest, "You have already submitted a proposal for this project")
	}

	proposal := models.Proposal{
		ProjectID:     project.ID,
		FreelancerID:  userID,
		CoverLetter:   req.CoverLetter,
		BidAmount:     req.BidAmount,
		EstimatedTime: req.EstimatedTime,
		Status:        models.OfferStatusPending,
	}

	if err := h.DB.Create(&proposal).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to create proposal")
	}

	h.Notify.Notify(project.ClientID, models.NotificationTypeProposal,
		"New proposal received",
		"A freelancer submitted a proposal for \""+project.Title+"\".",
		map[string]interface{}{
			"proposal_id": proposal.ID,
			"project_id":  project.ID,
		})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    proposal,
	})
}

// List returns the acting user's proposals: sent ones for freelancers,
// received ones for clients.
func (h *ProposalHandler) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	role, _ := c.Locals("role").(string)

	q := h.DB.Preload("Project").Preload("Freelancer")
	switch role {
	case string(models.RoleFreelancer):
		q = q.Where("freelancer_id = ?", userID)
	case string(models.RoleClient):
		q = q.Joins("JOIN projects ON projects.id = proposals.project_id").
			Where("projects.client_id = ?", userID)
	default:
		return c.JSON(fiber.Map{"success": true, "data": []models.Proposal{}})
	}

	var proposals []models.Proposal
	if err := q.Order("proposals.created_at DESC").Find(&proposals).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch proposals")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    proposals,
	})
}

func (h *ProposalHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var proposal models.Proposal
	if err := h.DB.Preload("Project").Preload("Freelancer").
		First(&proposal, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Proposal not found")
	}

	if proposal.FreelancerID != userID && (proposal.Project == nil || proposal.Project.ClientID != userID) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    proposal,
	})
}

// Accept is the project-owner action that kicks off the contract flow: sibling
// pending proposals are rejected, the project moves to in_progress and a
// contract is created (or fetched) keyed by this proposal, all in one tx.
func (h *ProposalHandler) Accept(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var contract *models.Contract
	var contractCreated bool
	var proposal models.Proposal
	var project models.Project

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&proposal, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Proposal not found")
		}
		if err := tx.First(&project, "id = ?", proposal.ProjectID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Project not found")
		}
		if project.ClientID != userID {
			return fiber.NewError(fiber.StatusForbidden, "Not authorized")
		}

		var err error
		contract, contractCreated, err = lifecycle.AcceptProposal(tx, &proposal, &project)
		return err
	})
	if txErr != nil {
		return failFiber(c, txErr)
	}

	h.Notify.Notify(proposal.FreelancerID, models.NotificationTypeProposal,
		"Proposal accepted",
		"Your proposal for \""+project.Title+"\" was accepted.",
		map[string]interface{}{
			"proposal_id": proposal.ID,
			"project_id":  project.ID,
			"contract_id": contract.ID,
		})

	if contractCreated {
		h.Notify.NotifyBoth(contract.ClientID, contract.FreelancerID,
			models.NotificationTypeContract,
			"New contract for \""+project.Title+"\"",
			"A new contract has been created. Please sign it to proceed.",
			map[string]interface{}{
				"contract_id": contract.ID,
				"proposal_id": proposal.ID,
				"project_id":  project.ID,
			})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Proposal accepted. Contract created.",
		"data": fiber.Map{
			"proposal": proposal,
			"contract": contract,
		},
	})
}

func (h *ProposalHandler) Reject(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var proposal models.Proposal
	if err := h.DB.Preload("Project").First(&proposal, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Proposal not found")
	}
	if proposal.Project == nil || proposal.Project.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "Not authorized")
	}

	previous := proposal.Status
	proposal.Status = models.OfferStatusRejected
	if err := h.DB.Save(&proposal).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to reject proposal")
	}

	if previous != models.OfferStatusRejected {
		h.Notify.Notify(proposal.FreelancerID, models.NotificationTypeProposal,
			"Proposal rejected",
			"Your proposal for \""+proposal.Project.Title+"\" was rejected.",
			map[string]interface{}{
				"proposal_id": proposal.ID,
				"project_id":  proposal.ProjectID,
			})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Proposal rejected.",
	})
}

func (h *ProposalHandler) Withdraw(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var proposal models.Proposal
	if err := h.DB.First(&proposal, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Proposal not found")
	}
	if proposal.FreelancerID != userID {
		return fail(c, fiber.StatusForbidden, "Not authorized")
	}
	if proposal.Status != models.OfferStatusPending {
		return fail(c, fiber.StatusBadRequest, "Only pending proposals can be withdrawn")
	}

	proposal.Status = models.OfferStatusWithdrawn
	if err := h.DB.Save(&proposal).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to withdraw proposal")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Proposal withdrawn.",
	})
}
