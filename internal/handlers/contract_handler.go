package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/services/lifecycle"
	"github.com/talentlink/talentlink/internal/services/notify"
)

type ContractHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
}

func NewContractHandler(db *gorm.DB, n *notify.Service) *ContractHandler {
	return &ContractHandler{DB: db, Notify: n}
}

func (h *ContractHandler) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	q := h.DB.Preload("Client").Preload("Freelancer").
		Where("client_id = ? OR freelancer_id = ?", userID, userID)

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var contracts []models.Contract
	if err := q.Order("created_at DESC").Find(&contracts).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch contracts")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    contracts,
	})
}

func (h *ContractHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var contract models.Contract
	if err := h.DB.Preload("Client").Preload("Freelancer").
		Preload("Proposal.Project").Preload("JobApplication.Job").
		First(&contract, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Contract not found")
	}
	if !contract.IsParty(userID) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    contract,
	})
}

// Sign records the acting party's signature. When the second signature lands
// the contract activates and its workspace is created, all inside one tx so a
// crash can never leave an active contract without a workspace.
func (h *ContractHandler) Sign(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var contract models.Contract
	var activated bool
	var workspaceCreated bool

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&contract, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Contract not found")
		}
		if !contract.IsParty(userID) {
			return fiber.NewError(fiber.StatusForbidden, "Not authorized")
		}
		if contract.Status != models.ContractStatusPending && contract.Status != models.ContractStatusActive {
			return fiber.NewError(fiber.StatusBadRequest, "Contract can no longer be signed")
		}

		switch userID {
		case contract.ClientID:
			if contract.ClientSigned {
				return fiber.NewError(fiber.StatusBadRequest, "You have already signed this contract")
			}
			contract.ClientSigned = true
		case contract.FreelancerID:
			if contract.FreelancerSigned {
				return fiber.NewError(fiber.StatusBadRequest, "You have already signed this contract")
			}
			contract.FreelancerSigned = true
		}

		if err := tx.Save(&contract).Error; err != nil {
			return err
		}

		var err error
		activated, err = lifecycle.ActivateIfSigned(tx, &contract)
		if err != nil {
			return err
		}

		_, workspaceCreated, err = lifecycle.EnsureWorkspace(tx, &contract)
		return err
	})
	if txErr != nil {
		return failFiber(c, txErr)
	}

	title := lifecycle.EngagementTitle(h.DB, &contract)

	h.Notify.Notify(contract.OtherParty(userID), models.NotificationTypeContract,
		"Contract signed",
		"The other party signed the contract for \""+title+"\".",
		map[string]interface{}{"contract_id": contract.ID})

	if activated {
		h.Notify.NotifyBoth(contract.ClientID, contract.FreelancerID,
			models.NotificationTypeContract,
			"Contract active",
			"Both parties signed. The contract for \""+title+"\" is now active.",
			map[string]interface{}{"contract_id": contract.ID})
	}
	if workspaceCreated {
		h.Notify.NotifyBoth(contract.ClientID, contract.FreelancerID,
			models.NotificationTypeWorkspace,
			"Workspace ready",
			"A workspace was created for \""+title+"\".",
			map[string]interface{}{"contract_id": contract.ID})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Contract signed.",
		"data":    contract,
	})
}

func (h *ContractHandler) Cancel(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var contract models.Contract
	if err := h.DB.First(&contract, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Contract not found")
	}
	if !contract.IsParty(userID) {
		return fail(c, fiber.StatusForbidden, "Not authorized")
	}
	if contract.Status == models.ContractStatusCompleted {
		return fail(c, fiber.StatusBadRequest, "Completed contracts cannot be cancelled")
	}
	if contract.Status == models.ContractStatusCancelled {
		return fail(c, fiber.StatusBadRequest, "Contract is already cancelled")
	}

	contract.Status = models.ContractStatusCancelled
	if err := h.DB.Save(&contract).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to cancel contract")
	}

	h.Notify.Notify(contract.OtherParty(userID), models.NotificationTypeContract,
		"Contract cancelled",
		"The contract for \""+lifecycle.EngagementTitle(h.DB, &contract)+"\" was cancelled.",
		map[string]interface{}{"contract_id": contract.ID})

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Contract cancelled.",
		"data":    contract,
	})
}
