package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/models"
)

type JobHandler struct {
	DB *gorm.DB
}

func NewJobHandler(db *gorm.DB) *JobHandler {
	return &JobHandler{DB: db}
}

type JobReq struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	JobType         string `json:"job_type"`
	ExperienceLevel string `json:"experience_level"`
	HourlyMin       int64  `json:"hourly_min"`
	HourlyMax       int64  `json:"hourly_max"`
	Location        string `json:"location"`
	LocationType    string `json:"location_type"`
	Status          string `json:"status"`
}

func (h *JobHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	var req JobReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	errs := FieldErrors{}
	if strings.TrimSpace(req.Title) == "" {
		errs.Add("title", "Title is required")
	}
	if req.HourlyMin < 0 || req.HourlyMax < 0 {
		errs.Add("hourly", "Rates must not be negative")
	}
	if req.HourlyMax > 0 && req.HourlyMin > req.HourlyMax {
		errs.Add("hourly", "hourly_min must not exceed hourly_max")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	status := models.EngagementStatusOpen
	if req.Status == string(models.EngagementStatusDraft) {
		status = models.EngagementStatusDraft
	}

	job := models.Job{
		ClientID:        userID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		JobType:         models.JobType(req.JobType),
		ExperienceLevel: models.ExperienceLevel(req.ExperienceLevel),
		HourlyMin:       req.HourlyMin,
		HourlyMax:       req.HourlyMax,
		Location:        req.Location,
		LocationType:    req.LocationType,
		Status:          status,
	}
	if job.JobType == "" {
		job.JobType = models.JobTypeHourly
	}
	if job.ExperienceLevel == "" {
		job.ExperienceLevel = models.ExperienceIntermediate
	}

	if err := h.DB.Create(&job).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to create job")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    job,
	})
}

// List is the public job feed. Same filter chain as the project feed plus a
// location substring match.
func (h *JobHandler) List(c *fiber.Ctx) error {
	q := h.DB.Model(&models.Job{}).Preload("Client").Where("visibility = ?", "public")

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}

	if loc := strings.TrimSpace(c.Query("location")); loc != "" {
		q = q.Where("location LIKE ?", "%"+loc+"%")
	}

	q = applyEngagementFilters(q, c, "hourly_min", "hourly_max")

	var jobs []models.Job
	if err := q.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch jobs")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    jobs,
	})
}

func (h *JobHandler) ListMine(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	var jobs []models.Job
	if err := h.DB.Where("client_id = ?", userID).
		Order("created_at DESC").Find(&jobs).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch jobs")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    jobs,
	})
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var job models.Job
	if err := h.DB.Preload("Client").First(&job, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Job not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    job,
	})
}

func (h *JobHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Job not found")
	}
	if job.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "Not authorized")
	}

	var req JobReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if strings.TrimSpace(req.Title) != "" {
		job.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != "" {
		job.Description = req.Description
	}
	if req.HourlyMin > 0 {
		job.HourlyMin = req.HourlyMin
	}
	if req.HourlyMax > 0 {
		job.HourlyMax = req.HourlyMax
	}
	if req.Location != "" {
		job.Location = req.Location
	}
	if req.Status != "" {
		switch models.EngagementStatus(req.Status) {
		case models.EngagementStatusDraft, models.EngagementStatusOpen, models.EngagementStatusCancelled:
			job.Status = models.EngagementStatus(req.Status)
		default:
			return fail(c, fiber.StatusBadRequest, "Invalid status")
		}
	}

	if err := h.DB.Save(&job).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to update job")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    job,
	})
}

func (h *JobHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Job not found")
	}
	if job.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "Not authorized")
	}

	if err := h.DB.Delete(&job).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to delete job")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Job deleted",
	})
}
