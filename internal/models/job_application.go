package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobApplication is a freelancer's bid against a Job. One per (job, freelancer).
type JobApplication struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID        uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_application_job_freelancer" json:"job_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_application_job_freelancer" json:"freelancer_id"`

	CoverLetter   string `gorm:"type:text" json:"cover_letter"`
	BidAmount     int64  `gorm:"not null" json:"bid_amount"`
	EstimatedTime string `gorm:"size:100" json:"estimated_time"`

	// File storage is external; only attachment descriptors are kept.
	Attachments datatypes.JSON `json:"attachments,omitempty"`

	Status OfferStatus `gorm:"type:varchar(20);default:pending;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Job        *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Freelancer *User `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

func (a *JobApplication) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
