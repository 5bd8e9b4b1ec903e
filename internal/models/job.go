package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Job is the hourly-style engagement: a client-posted position with rate range
// and location, applied to with JobApplications.
type Job struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`

	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	JobType         JobType         `gorm:"type:varchar(10);default:hourly" json:"job_type"`
	ExperienceLevel ExperienceLevel `gorm:"type:varchar(20);default:intermediate" json:"experience_level"`

	HourlyMin int64 `json:"hourly_min"`
	HourlyMax int64 `json:"hourly_max"`

	Location     string `gorm:"size:200" json:"location"`
	LocationType string `gorm:"type:varchar(20);default:remote" json:"location_type"`
	Visibility   string `gorm:"type:varchar(20);default:public" json:"visibility"`

	Status EngagementStatus `gorm:"type:varchar(20);default:open;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client *User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) (err error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return
}
