package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewType string

const (
	ReviewTypePlatform ReviewType = "platform"
	ReviewTypeExternal ReviewType = "external"
)

// Review is a post-completion rating. Platform reviews are tied to a completed
// contract; external reviews are out-of-platform testimonials and never count
// toward the rating average.
type Review struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ContractID *uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_review_contract_reviewer" json:"contract_id,omitempty"`

	ReviewerID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_review_contract_reviewer" json:"reviewer_id"`
	RevieweeID uuid.UUID `gorm:"type:uuid;index;not null" json:"reviewee_id"`

	Rating  int    `gorm:"not null" json:"rating"` // 1-5
	Comment string `gorm:"type:text" json:"comment"`

	ReviewType ReviewType `gorm:"type:varchar(20);default:platform;index" json:"review_type"`
	IsVerified bool       `gorm:"default:false" json:"is_verified"`

	// External testimonial assertion fields.
	ClientName  string `gorm:"size:200" json:"client_name,omitempty"`
	ClientEmail string `gorm:"size:200" json:"client_email,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Contract *Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	Reviewer *User     `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Reviewee *User     `gorm:"foreignKey:RevieweeID" json:"reviewee,omitempty"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
