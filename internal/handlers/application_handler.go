package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/services/lifecycle"
	"github.com/talentlink/talentlink/internal/services/notify"
)

type ApplicationHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
}

func NewApplicationHandler(db *gorm.DB, n *notify.Service) *ApplicationHandler {
	return &ApplicationHandler{DB: db, Notify: n}
}

type ApplicationReq struct {
	JobID         string   `json:"job_id"`
	CoverLetter   string   `json:"cover_letter"`
	BidAmount     int64    `json:"bid_amount"`
	EstimatedTime string   `json:"estimated_time"`
	Attachments   []string `json:"attachments"` // external storage URLs, max 3
}

func (h *ApplicationHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	var req ApplicationReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.BidAmount <= 0 {
		return fail(c, fiber.StatusBadRequest, "Bid amount must be positive")
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", req.JobID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Job not found")
	}

	if job.Status != models.EngagementStatusOpen {
		return fail(c, fiber.StatusBadRequest, "This job is no longer accepting applications")
	}

	var existing models.JobApplication
	if err := h.DB.Where("job_id = ? AND freelancer_id = ?", job.ID, userID).
		First(&existing).Error; err == nil {
		return fail(c, fiber.StatusBadRequest, "You have already submitted an application for this job")
	}

	application := models.JobApplication{
		JobID:         job.ID,
		FreelancerID:  userID,
		CoverLetter:   req.CoverLetter,
		BidAmount:     req.BidAmount,
		EstimatedTime: req.EstimatedTime,
		Status:        models.OfferStatusPending,
	}

	if len(req.Attachments) > 3 {
		req.Attachments = req.Attachments[:3]
	}
	if len(req.Attachments) > 0 {
		if b, err := json.Marshal(req.Attachments); err == nil {
			application.Attachments = b
		}
	}

	if err := h.DB.Create(&application).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to create application")
	}

	h.Notify.Notify(job.ClientID, models.NotificationTypeProposal,
		"New job application",
		"A freelancer applied for your job: "+job.Title,
		map[string]interface{}{
			"job_id":         job.ID,
			"application_id": application.ID,
			"freelancer_id":  userID,
		})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    application,
	})
}

func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	role, _ := c.Locals("role").(string)

	q := h.DB.Preload("Job").Preload("Freelancer")
	switch role {
	case string(models.RoleFreelancer):
		q = q.Where("freelancer_id = ?", userID)
	case string(models.RoleClient):
		q = q.Joins("JOIN jobs ON jobs.id = job_applications.job_id").
			Where("jobs.client_id = ?", userID)
	default:
		return c.JSON(fiber.Map{"success": true, "data": []models.JobApplication{}})
	}

	var applications []models.JobApplication
	if err := q.Order("job_applications.created_at DESC").Find(&applications).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch applications")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    applications,
	})
}

// Accept mirrors proposal acceptance for the job side: sibling rejection,
// job to in_progress and idempotent contract creation in a single tx.
func (h *ApplicationHandler) Accept(c *fiber.Ctx) error {
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
	var application models.JobApplication
	var job models.Job

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&application, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Application not found")
		}
		if err := tx.First(&job, "id = ?", application.JobID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Job not found")
		}
		if job.ClientID != userID {
			return fiber.NewError(fiber.StatusForbidden, "Not authorized")
		}

		var err error
		contract, contractCreated, err = lifecycle.AcceptApplication(tx, &application, &job)
		return err
	})
	if txErr != nil {
		return failFiber(c, txErr)
	}

	h.Notify.Notify(application.FreelancerID, models.NotificationTypeProposal,
		"Application accepted",
		"Your application for \""+job.Title+"\" has been accepted!",
		map[string]interface{}{
			"job_id":         job.ID,
			"application_id": application.ID,
			"contract_id":    contract.ID,
		})

	if contractCreated {
		h.Notify.NotifyBoth(contract.ClientID, contract.FreelancerID,
			models.NotificationTypeContract,
			"New contract for \""+job.Title+"\"",
			"A new contract has been created. Please sign it to proceed.",
			map[string]interface{}{
				"contract_id":    contract.ID,
				"application_id": application.ID,
				"job_id":         job.ID,
			})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Application accepted. Contract created.",
		"data": fiber.Map{
			"application": application,
			"contract":    contract,
		},
	})
}

func (h *ApplicationHandler) Reject(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var application models.JobApplication
	if err := h.DB.Preload("Job").First(&application, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Application not found")
	}
	if application.Job == nil || application.Job.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "Not authorized")
	}

	previous := application.Status
	application.Status = models.OfferStatusRejected
	if err := h.DB.Save(&application).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to reject application")
	}

	if previous != models.OfferStatusRejected {
		h.Notify.Notify(application.FreelancerID, models.NotificationTypeProposal,
			"Application rejected",
			"Your application for \""+application.Job.Title+"\" was not accepted.",
			map[string]interface{}{
				"job_id":         application.JobID,
				"application_id": application.ID,
			})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Application rejected.",
	})
}

func (h *ApplicationHandler) Withdraw(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var application models.JobApplication
	if err := h.DB.First(&application, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Application not found")
	}
	if application.FreelancerID != userID {
		return fail(c, fiber.StatusForbidden, "Not authorized")
	}
	if application.Status != models.OfferStatusPending {
		return fail(c, fiber.StatusBadRequest, "Only pending applications can be withdrawn")
	}

	application.Status = models.OfferStatusWithdrawn
	if err := h.DB.Save(&application).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to withdraw application")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Application withdrawn.",
	})
}
