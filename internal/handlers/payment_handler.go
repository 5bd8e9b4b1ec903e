package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/services/notify"
)

type PaymentHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
}

func NewPaymentHandler(db *gorm.DB, n *notify.Service) *PaymentHandler {
	return &PaymentHandler{DB: db, Notify: n}
}

type PaymentReq struct {
	WorkspaceID   string `json:"workspace_id"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
}

// Create records a payment the client made outside the platform. Client only;
// the freelancer later confirms receipt.
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	var req PaymentReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Amount <= 0 {
		return fail(c, fiber.StatusBadRequest, "Amount must be positive")
	}

	var ws models.Workspace
	if err := h.DB.Preload("Contract").First(&ws, "id = ?", req.WorkspaceID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Workspace not found")
	}
	if ws.Contract == nil || ws.Contract.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "Only the client can record payments")
	}

	payment := models.PaymentTransaction{
		WorkspaceID:   ws.ID,
		Amount:        req.Amount,
		Description:   req.Description,
		PaidByID:      ws.Contract.ClientID,
		ReceivedByID:  ws.Contract.FreelancerID,
		Status:        models.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
	}
	if err := h.DB.Create(&payment).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to record payment")
	}

	h.Notify.Notify(ws.Contract.FreelancerID, models.NotificationTypePayment,
		"Payment recorded",
		"The client recorded a payment. Please confirm receipt.",
		map[string]interface{}{
			"payment_id":   payment.ID,
			"workspace_id": ws.ID,
			"amount":       payment.Amount,
		})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    payment,
	})
}

func (h *PaymentHandler) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		return fail(c, fiber.StatusBadRequest, "workspace_id is required")
	}

	var ws models.Workspace
	if err := h.DB.Preload("Contract").First(&ws, "id = ?", workspaceID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Workspace not found")
	}
	if ws.Contract == nil || !ws.Contract.IsParty(userID) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	var payments []models.PaymentTransaction
	if err := h.DB.Preload("PaidBy").Preload("ReceivedBy").
		Where("workspace_id = ?", ws.ID).
		Order("created_at DESC").Find(&payments).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch payments")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    payments,
	})
}

// Confirm is the one-way pending to confirmed transition, restricted to the
// payment's recipient.
func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var payment models.PaymentTransaction
	if err := h.DB.First(&payment, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Payment not found")
	}
	if payment.ReceivedByID != userID {
		return fail(c, fiber.StatusForbidden, "Only the recipient can confirm a payment")
	}
	if payment.Status == models.PaymentStatusConfirmed {
		return fail(c, fiber.StatusBadRequest, "Payment is already confirmed")
	}

	now := time.Now()
	payment.Status = models.PaymentStatusConfirmed
	payment.FreelancerConfirmed = true
	payment.ConfirmedAt = &now
	if err := h.DB.Save(&payment).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to confirm payment")
	}

	h.Notify.Notify(payment.PaidByID, models.NotificationTypePayment,
		"Payment confirmed",
		"The freelancer confirmed receipt of your payment.",
		map[string]interface{}{
			"payment_id":   payment.ID,
			"workspace_id": payment.WorkspaceID,
			"amount":       payment.Amount,
		})

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Payment confirmed.",
		"data":    payment,
	})
}

type PaymentRequestReq struct {
	WorkspaceID string `json:"workspace_id"`
	Amount      int64  `json:"amount"`
	Message     string `json:"message"`
}

// CreateRequest lets the freelancer ask the client for a payment.
func (h *PaymentHandler) CreateRequest(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	var req PaymentRequestReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Amount <= 0 {
		return fail(c, fiber.StatusBadRequest, "Amount must be positive")
	}

	var ws models.Workspace
	if err := h.DB.Preload("Contract").First(&ws, "id = ?", req.WorkspaceID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Workspace not found")
	}
	if ws.Contract == nil || ws.Contract.FreelancerID != userID {
		return fail(c, fiber.StatusForbidden, "Only the freelancer can request payments")
	}

	request := models.PaymentRequest{
		WorkspaceID:  ws.ID,
		FreelancerID: userID,
		Amount:       req.Amount,
		Message:      req.Message,
		Status:       models.PaymentRequestPending,
	}
	if err := h.DB.Create(&request).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to create payment request")
	}

	h.Notify.Notify(ws.Contract.ClientID, models.NotificationTypePayment,
		"Payment requested",
		"The freelancer requested a payment.",
		map[string]interface{}{
			"request_id":   request.ID,
			"workspace_id": ws.ID,
			"amount":       request.Amount,
		})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    request,
	})
}

func (h *PaymentHandler) ListRequests(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		return fail(c, fiber.StatusBadRequest, "workspace_id is required")
	}

	var ws models.Workspace
	if err := h.DB.Preload("Contract").First(&ws, "id = ?", workspaceID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Workspace not found")
	}
	if ws.Contract == nil || !ws.Contract.IsParty(userID) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	var requests []models.PaymentRequest
	if err := h.DB.Preload("Freelancer").
		Where("workspace_id = ?", ws.ID).
		Order("created_at DESC").Find(&requests).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch payment requests")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    requests,
	})
}

// resolveRequest is the shared approve/reject transition: pending only, client
// only, one-way.
func (h *PaymentHandler) resolveRequest(c *fiber.Ctx, target models.PaymentRequestStatus) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var request models.PaymentRequest
	if err := h.DB.Preload("Workspace.Contract").First(&request, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Payment request not found")
	}
	if request.Workspace == nil || request.Workspace.Contract == nil ||
		request.Workspace.Contract.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "Only the client can resolve payment requests")
	}
	if request.Status != models.PaymentRequestPending {
		return fail(c, fiber.StatusBadRequest, "Payment request is already resolved")
	}

	request.Status = target
	if err := h.DB.Save(&request).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to update payment request")
	}

	title := "Payment request approved"
	message := "The client approved your payment request."
	if target == models.PaymentRequestRejected {
		title = "Payment request rejected"
		message = "The client rejected your payment request."
		var body struct {
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&body); err == nil && body.Reason != "" {
			message += " Reason: " + body.Reason
		}
	}

	h.Notify.Notify(request.FreelancerID, models.NotificationTypePayment,
		title, message,
		map[string]interface{}{
			"request_id":   request.ID,
			"workspace_id": request.WorkspaceID,
			"amount":       request.Amount,
		})

	return c.JSON(fiber.Map{
		"success": true,
		"data":    request,
	})
}

func (h *PaymentHandler) ApproveRequest(c *fiber.Ctx) error {
	return h.resolveRequest(c, models.PaymentRequestApproved)
}

func (h *PaymentHandler) RejectRequest(c *fiber.Ctx) error {
	return h.resolveRequest(c, models.PaymentRequestRejected)
}
