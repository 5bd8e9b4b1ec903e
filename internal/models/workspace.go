package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Workspace is the post-signature collaboration record for one contract,
// created exactly once when the contract is fully signed and active. It hosts
// tasks and payment records and tracks bilateral completion.
type Workspace struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ContractID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"contract_id"`

	ClientMarkedComplete     bool       `gorm:"default:false" json:"client_marked_complete"`
	FreelancerMarkedComplete bool       `gorm:"default:false" json:"freelancer_marked_complete"`
	CompletedAt              *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Contract *Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
}

func (w *Workspace) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}

// IsFullyCompleted reports whether both parties confirmed completion.
func (w *Workspace) IsFullyCompleted() bool {
	return w.ClientMarkedComplete && w.FreelancerMarkedComplete
}

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusOverdue    TaskStatus = "overdue"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// WorkspaceTask is a unit of work inside a workspace. The assignee is always
// the contract's freelancer regardless of who created the task.
type WorkspaceTask struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;index:idx_task_workspace_status;not null" json:"workspace_id"`

	Title       string `gorm:"size:300;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	CreatedByID  uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`
	AssignedToID uuid.UUID `gorm:"type:uuid;index" json:"assigned_to_id"`

	Status   TaskStatus   `gorm:"type:varchar(20);default:todo;index:idx_task_workspace_status" json:"status"`
	Priority TaskPriority `gorm:"type:varchar(20);default:medium" json:"priority"`

	Deadline    *time.Time     `gorm:"index" json:"deadline,omitempty"`
	Attachments datatypes.JSON `json:"attachments,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Workspace  *Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	CreatedBy  *User      `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	AssignedTo *User      `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}

func (t *WorkspaceTask) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

// BeforeSave applies the derived-state rules on every persist: completed_at is
// stamped on first completion and cleared when the task leaves completed, and a
// task with a past deadline is forced to overdue unless completed.
func (t *WorkspaceTask) BeforeSave(tx *gorm.DB) (err error) {
	if t.Status == TaskStatusCompleted {
		if t.CompletedAt == nil {
			now := time.Now()
			t.CompletedAt = &now
		}
	} else {
		t.CompletedAt = nil
		if t.Deadline != nil && time.Now().After(*t.Deadline) {
			t.Status = TaskStatusOverdue
		}
	}
	return
}

// TaskComment is a comment left by either contract party on a workspace task.
type TaskComment struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID uuid.UUID `gorm:"type:uuid;index;not null" json:"task_id"`
	UserID uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`

	Comment string `gorm:"type:text;not null" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Task *WorkspaceTask `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (tc *TaskComment) BeforeCreate(tx *gorm.DB) (err error) {
	if tc.ID == uuid.Nil {
		tc.ID = uuid.New()
	}
	return
}
