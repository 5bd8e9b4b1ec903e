package handlers

import (
	"math"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/services/lifecycle"
	"github.com/talentlink/talentlink/internal/services/notify"
)

type WorkspaceHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
}

func NewWorkspaceHandler(db *gorm.DB, n *notify.Service) *WorkspaceHandler {
	return &WorkspaceHandler{DB: db, Notify: n}
}

// loadWorkspaceForParty fetches a workspace with its contract and checks the
// acting user is one of the contract parties.
func (h *WorkspaceHandler) loadWorkspaceForParty(c *fiber.Ctx) (*models.Workspace, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return nil, err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return nil, err
	}

	var ws models.Workspace
	if err := h.DB.Preload("Contract").First(&ws, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Workspace not found")
	}
	if ws.Contract == nil || !ws.Contract.IsParty(userID) {
		return nil, fiber.NewError(fiber.StatusForbidden, "Access denied")
	}
	return &ws, nil
}

func (h *WorkspaceHandler) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	var workspaces []models.Workspace
	if err := h.DB.Preload("Contract.Client").Preload("Contract.Freelancer").
		Joins("JOIN contracts ON contracts.id = workspaces.contract_id").
		Where("contracts.client_id = ? OR contracts.freelancer_id = ?", userID, userID).
		Order("workspaces.created_at DESC").
		Find(&workspaces).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch workspaces")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    workspaces,
	})
}

func (h *WorkspaceHandler) Get(c *fiber.Ctx) error {
	ws, err := h.loadWorkspaceForParty(c)
	if err != nil {
		return failFiber(c, err)
	}

	if err := h.DB.Preload("Contract.Client").Preload("Contract.Freelancer").
		First(ws, "id = ?", ws.ID).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch workspace")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    ws,
	})
}

// MarkComplete sets the acting party's completion flag. When the second flag
// lands, the completion cascade runs: completed_at is stamped, the contract is
// completed and the originating project or job is completed with it.
func (h *WorkspaceHandler) MarkComplete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var ws models.Workspace
	var contract models.Contract
	var cascaded bool

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ws, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Workspace not found")
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&contract, "id = ?", ws.ContractID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Contract not found")
		}
		if !contract.IsParty(userID) {
			return fiber.NewError(fiber.StatusForbidden, "Not authorized")
		}

		switch userID {
		case contract.ClientID:
			if ws.ClientMarkedComplete {
				return fiber.NewError(fiber.StatusBadRequest, "You have already marked this workspace as complete")
			}
			ws.ClientMarkedComplete = true
		case contract.FreelancerID:
			if ws.FreelancerMarkedComplete {
				return fiber.NewError(fiber.StatusBadRequest, "You have already marked this workspace as complete")
			}
			ws.FreelancerMarkedComplete = true
		}

		if err := tx.Save(&ws).Error; err != nil {
			return err
		}

		if ws.IsFullyCompleted() {
			cascaded = true
			return lifecycle.CompleteWorkspace(tx, &ws, &contract)
		}
		return nil
	})
	if txErr != nil {
		return failFiber(c, txErr)
	}

	title := lifecycle.EngagementTitle(h.DB, &contract)

	if cascaded {
		h.Notify.NotifyBoth(contract.ClientID, contract.FreelancerID,
			models.NotificationTypeWorkspace,
			"Workspace completed",
			"Both parties marked \""+title+"\" as complete. The contract is now closed.",
			map[string]interface{}{
				"workspace_id": ws.ID,
				"contract_id":  contract.ID,
			})
	} else {
		h.Notify.Notify(contract.OtherParty(userID), models.NotificationTypeWorkspace,
			"Completion requested",
			"The other party marked \""+title+"\" as complete. Confirm to close the contract.",
			map[string]interface{}{
				"workspace_id": ws.ID,
				"contract_id":  contract.ID,
			})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Completion recorded.",
		"data":    ws,
	})
}

type paymentTimelineEntry struct {
	Date       string `json:"date"`
	Amount     int64  `json:"amount"`
	Cumulative int64  `json:"cumulative"`
}

// PaymentStats aggregates the workspace's payment log: confirmed and pending
// totals, percentage of the agreed bid covered by confirmed payments, and a
// cumulative timeline of confirmed payments.
func (h *WorkspaceHandler) PaymentStats(c *fiber.Ctx) error {
	ws, err := h.loadWorkspaceForParty(c)
	if err != nil {
		return failFiber(c, err)
	}

	var payments []models.PaymentTransaction
	if err := h.DB.Where("workspace_id = ?", ws.ID).
		Order("created_at ASC").Find(&payments).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch payments")
	}

	var totalConfirmed, totalPending int64
	var timeline []paymentTimelineEntry
	for _, p := range payments {
		switch p.Status {
		case models.PaymentStatusConfirmed:
			totalConfirmed += p.Amount
			timeline = append(timeline, paymentTimelineEntry{
				Date:       p.CreatedAt.Format("2006-01-02"),
				Amount:     p.Amount,
				Cumulative: totalConfirmed,
			})
		case models.PaymentStatusPending:
			totalPending += p.Amount
		}
	}

	var agreed int64
	switch {
	case ws.Contract.ProposalID != nil:
		var proposal models.Proposal
		if err := h.DB.First(&proposal, "id = ?", ws.Contract.ProposalID).Error; err == nil {
			agreed = proposal.BidAmount
		}
	case ws.Contract.JobApplicationID != nil:
		var application models.JobApplication
		if err := h.DB.First(&application, "id = ?", ws.Contract.JobApplicationID).Error; err == nil {
			agreed = application.BidAmount
		}
	}

	percent := 0.0
	remaining := int64(0)
	if agreed > 0 {
		percent = math.Round(float64(totalConfirmed)/float64(agreed)*10000) / 100
		if agreed > totalConfirmed {
			remaining = agreed - totalConfirmed
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_confirmed": totalConfirmed,
			"total_pending":   totalPending,
			"remaining":       remaining,
			"payment_count":   len(payments),
			"agreed_amount":   agreed,
			"percent_paid":    percent,
			"timeline":        timeline,
		},
	})
}
