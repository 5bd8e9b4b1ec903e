package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EngagementStatus string

const (
	EngagementStatusDraft      EngagementStatus = "draft"
	EngagementStatusOpen       EngagementStatus = "open"
	EngagementStatusInProgress EngagementStatus = "in_progress"
	EngagementStatusCompleted  EngagementStatus = "completed"
	EngagementStatusCancelled  EngagementStatus = "cancelled"
)

type JobType string

const (
	JobTypeHourly JobType = "hourly"
	JobTypeFixed  JobType = "fixed"
)

type ExperienceLevel string

const (
	ExperienceEntry        ExperienceLevel = "entry"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceExpert       ExperienceLevel = "expert"
)

// Project is a client-posted work listing that freelancers bid on with proposals.
type Project struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`

	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	BudgetMin int64 `json:"budget_min"`
	BudgetMax int64 `json:"budget_max"`

	Duration        string          `gorm:"size:30" json:"duration"` // less_1_month, 1_3_months, 3_6_months, 6_plus_months
	HoursPerWeek    string          `gorm:"size:30" json:"hours_per_week"`
	JobType         JobType         `gorm:"type:varchar(10);default:fixed" json:"job_type"`
	ExperienceLevel ExperienceLevel `gorm:"type:varchar(20);default:intermediate" json:"experience_level"`
	LocationType    string          `gorm:"type:varchar(20);default:remote" json:"location_type"`

	Status EngagementStatus `gorm:"type:varchar(20);default:open;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client *User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
