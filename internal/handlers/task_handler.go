package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/services/notify"
)

type TaskHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
}

func NewTaskHandler(db *gorm.DB, n *notify.Service) *TaskHandler {
	return &TaskHandler{DB: db, Notify: n}
}

type TaskReq struct {
	WorkspaceID string     `json:"workspace_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
}

// loadTaskForParty fetches a task with its workspace contract and checks the
// acting user is one of the contract parties.
func (h *TaskHandler) loadTaskForParty(c *fiber.Ctx) (*models.WorkspaceTask, *models.Contract, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return nil, nil, err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return nil, nil, err
	}

	var task models.WorkspaceTask
	if err := h.DB.Preload("Workspace.Contract").First(&task, "id = ?", id).Error; err != nil {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, "Task not found")
	}
	if task.Workspace == nil || task.Workspace.Contract == nil || !task.Workspace.Contract.IsParty(userID) {
		return nil, nil, fiber.NewError(fiber.StatusForbidden, "Access denied")
	}
	return &task, task.Workspace.Contract, nil
}

// Create adds a task to a workspace. Either party may create tasks; the
// assignee is always the contract's freelancer.
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	var req TaskReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return fail(c, fiber.StatusBadRequest, "Title is required")
	}

	var ws models.Workspace
	if err := h.DB.Preload("Contract").First(&ws, "id = ?", req.WorkspaceID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Workspace not found")
	}
	if ws.Contract == nil || !ws.Contract.IsParty(userID) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	priority := models.TaskPriority(req.Priority)
	switch priority {
	case models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh:
	case "":
		priority = models.TaskPriorityMedium
	default:
		return fail(c, fiber.StatusBadRequest, "Invalid priority")
	}

	task := models.WorkspaceTask{
		WorkspaceID:  ws.ID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		CreatedByID:  userID,
		AssignedToID: ws.Contract.FreelancerID,
		Status:       models.TaskStatusTodo,
		Priority:     priority,
		Deadline:     req.Deadline,
	}

	if err := h.DB.Create(&task).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to create task")
	}

	if userID != ws.Contract.FreelancerID {
		h.Notify.Notify(ws.Contract.FreelancerID, models.NotificationTypeWorkspace,
			"New task assigned",
			"A new task was added: "+task.Title,
			map[string]interface{}{
				"task_id":      task.ID,
				"workspace_id": ws.ID,
			})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    task,
	})
}

func (h *TaskHandler) List(c *fiber.Ctx) error {
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

	q := h.DB.Preload("CreatedBy").Preload("AssignedTo").
		Where("workspace_id = ?", ws.ID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var tasks []models.WorkspaceTask
	if err := q.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch tasks")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    tasks,
	})
}

func (h *TaskHandler) Get(c *fiber.Ctx) error {
	task, _, err := h.loadTaskForParty(c)
	if err != nil {
		return failFiber(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    task,
	})
}

type taskStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus moves a task between statuses. Only the assigned freelancer may
// change task status. Derived rules (completed_at, overdue) apply on save.
func (h *TaskHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)

	task, contract, err := h.loadTaskForParty(c)
	if err != nil {
		return failFiber(c, err)
	}
	if userID != contract.FreelancerID {
		return fail(c, fiber.StatusForbidden, "Only the freelancer can update task status")
	}

	var req taskStatusReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	status := models.TaskStatus(req.Status)
	switch status {
	case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusCompleted:
	default:
		return fail(c, fiber.StatusBadRequest, "Invalid status")
	}

	wasCompleted := task.Status == models.TaskStatusCompleted
	task.Status = status
	if err := h.DB.Save(task).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to update task")
	}

	if status == models.TaskStatusCompleted && !wasCompleted {
		h.Notify.Notify(contract.ClientID, models.NotificationTypeWorkspace,
			"Task completed",
			"Task completed: "+task.Title,
			map[string]interface{}{
				"task_id":      task.ID,
				"workspace_id": task.WorkspaceID,
			})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    task,
	})
}

type taskCommentReq struct {
	Comment string `json:"comment"`
}

func (h *TaskHandler) AddComment(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)

	task, contract, err := h.loadTaskForParty(c)
	if err != nil {
		return failFiber(c, err)
	}

	var req taskCommentReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Comment) == "" {
		return fail(c, fiber.StatusBadRequest, "Comment is required")
	}

	comment := models.TaskComment{
		TaskID:  task.ID,
		UserID:  userID,
		Comment: req.Comment,
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to add comment")
	}

	h.Notify.Notify(contract.OtherParty(userID), models.NotificationTypeWorkspace,
		"New comment",
		"New comment on task: "+task.Title,
		map[string]interface{}{
			"task_id":      task.ID,
			"comment_id":   comment.ID,
			"workspace_id": task.WorkspaceID,
		})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    comment,
	})
}

func (h *TaskHandler) ListComments(c *fiber.Ctx) error {
	task, _, err := h.loadTaskForParty(c)
	if err != nil {
		return failFiber(c, err)
	}

	var comments []models.TaskComment
	if err := h.DB.Preload("User").
		Where("task_id = ?", task.ID).
		Order("created_at ASC").Find(&comments).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch comments")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    comments,
	})
}
