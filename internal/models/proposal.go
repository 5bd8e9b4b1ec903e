package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
	OfferStatusWithdrawn OfferStatus = "withdrawn"
)

// Proposal is a freelancer's bid against a Project. One per (project, freelancer).
type Proposal struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID    uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_proposal_project_freelancer" json:"project_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_proposal_project_freelancer" json:"freelancer_id"`

	CoverLetter   string `gorm:"type:text" json:"cover_letter"`
	BidAmount     int64  `gorm:"not null" json:"bid_amount"`
	EstimatedTime string `gorm:"size:100" json:"estimated_time"`

	Status OfferStatus `gorm:"type:varchar(20);default:pending;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Project    *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Freelancer *User    `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

func (p *Proposal) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
