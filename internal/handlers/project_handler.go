package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/models"
)

type ProjectHandler struct {
	DB *gorm.DB
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{DB: db}
}

type ProjectReq struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	BudgetMin       int64  `json:"budget_min"`
	BudgetMax       int64  `json:"budget_max"`
	Duration        string `json:"duration"`
	HoursPerWeek    string `json:"hours_per_week"`
	JobType         string `json:"job_type"`
	ExperienceLevel string `json:"experience_level"`
	LocationType    string `json:"location_type"`
	Status          string `json:"status"`
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	var req ProjectReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	errs := FieldErrors{}
	if strings.TrimSpace(req.Title) == "" {
		errs.Add("title", "Title is required")
	}
	if req.BudgetMin < 0 || req.BudgetMax < 0 {
		errs.Add("budget", "Budget must not be negative")
	}
	if req.BudgetMax > 0 && req.BudgetMin > req.BudgetMax {
		errs.Add("budget", "budget_min must not exceed budget_max")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	status := models.EngagementStatusOpen
	if req.Status == string(models.EngagementStatusDraft) {
		status = models.EngagementStatusDraft
	}

	project := models.Project{
		ClientID:        userID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		BudgetMin:       req.BudgetMin,
		BudgetMax:       req.BudgetMax,
		Duration:        req.Duration,
		HoursPerWeek:    req.HoursPerWeek,
		JobType:         models.JobType(req.JobType),
		ExperienceLevel: models.ExperienceLevel(req.ExperienceLevel),
		LocationType:    req.LocationType,
		Status:          status,
	}
	if project.JobType == "" {
		project.JobType = models.JobTypeFixed
	}
	if project.ExperienceLevel == "" {
		project.ExperienceLevel = models.ExperienceIntermediate
	}

	if err := h.DB.Create(&project).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to create project")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    project,
	})
}

// List returns open projects with the feed filters: status, job_type,
// experience_level, posted_time, budget range and free-text search.
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	q := h.DB.Model(&models.Project{}).Preload("Client")

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	} else {
		q = q.Where("status <> ?", models.EngagementStatusDraft)
	}

	q = applyEngagementFilters(q, c, "budget_min", "budget_max")

	var projects []models.Project
	if err := q.Order("created_at DESC").Find(&projects).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch projects")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    projects,
	})
}

// ListMine returns the acting client's own projects, drafts included.
func (h *ProjectHandler) ListMine(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	var projects []models.Project
	if err := h.DB.Where("client_id = ?", userID).
		Order("created_at DESC").Find(&projects).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch projects")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    projects,
	})
}

func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var project models.Project
	if err := h.DB.Preload("Client").First(&project, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Project not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    project,
	})
}

func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Project not found")
	}
	if project.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "Not authorized")
	}

	var req ProjectReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if strings.TrimSpace(req.Title) != "" {
		project.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.BudgetMin > 0 {
		project.BudgetMin = req.BudgetMin
	}
	if req.BudgetMax > 0 {
		project.BudgetMax = req.BudgetMax
	}
	if req.Duration != "" {
		project.Duration = req.Duration
	}
	if req.HoursPerWeek != "" {
		project.HoursPerWeek = req.HoursPerWeek
	}
	if req.Status != "" {
		switch models.EngagementStatus(req.Status) {
		case models.EngagementStatusDraft, models.EngagementStatusOpen, models.EngagementStatusCancelled:
			project.Status = models.EngagementStatus(req.Status)
		default:
			return fail(c, fiber.StatusBadRequest, "Invalid status")
		}
	}

	if err := h.DB.Save(&project).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to update project")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    project,
	})
}

func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Project not found")
	}
	if project.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "Not authorized")
	}

	if err := h.DB.Delete(&project).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to delete project")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Project deleted",
	})
}

// applyEngagementFilters applies the listing filters shared by the project and
// job feeds. minCol/maxCol name the rate columns of the underlying table.
func applyEngagementFilters(q *gorm.DB, c *fiber.Ctx, minCol, maxCol string) *gorm.DB {
	if jobTypes := strings.TrimSpace(c.Query("job_type")); jobTypes != "" {
		var list []string
		for _, j := range strings.Split(jobTypes, ",") {
			if j = strings.TrimSpace(j); j != "" {
				list = append(list, j)
			}
		}
		if len(list) > 0 {
			q = q.Where("job_type IN ?", list)
		}
	}

	if exp := strings.TrimSpace(c.Query("experience_level")); exp != "" {
		var list []string
		for _, e := range strings.Split(exp, ",") {
			if e = strings.TrimSpace(e); e != "" {
				list = append(list, e)
			}
		}
		if len(list) > 0 {
			q = q.Where("experience_level IN ?", list)
		}
	}

	if posted := strings.TrimSpace(c.Query("posted_time")); posted != "" {
		now := time.Now()
		switch posted {
		case "24h":
			q = q.Where("created_at >= ?", now.Add(-24*time.Hour))
		case "week":
			q = q.Where("created_at >= ?", now.AddDate(0, 0, -7))
		case "month":
			q = q.Where("created_at >= ?", now.AddDate(0, 0, -30))
		}
	}

	if min := c.QueryInt("rate_min", -1); min >= 0 {
		q = q.Where(minCol+" >= ?", min)
	}
	if max := c.QueryInt("rate_max", -1); max >= 0 {
		q = q.Where(maxCol+" <= ?", max)
	}

	if loc := strings.TrimSpace(c.Query("location_type")); loc != "" {
		var list []string
		for _, l := range strings.Split(loc, ",") {
			if l = strings.TrimSpace(l); l != "" {
				list = append(list, l)
			}
		}
		if len(list) > 0 {
			q = q.Where("location_type IN ?", list)
		}
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	return q
}
