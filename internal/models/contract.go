package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContractStatus string

const (
	ContractStatusPending   ContractStatus = "pending"
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// Contract binds a client and a freelancer after an offer is accepted. Exactly
// one of ProposalID / JobApplicationID is set, pointing at the originating
// offer. Both parties must sign before the contract activates.
type Contract struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	ProposalID       *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"proposal_id,omitempty"`
	JobApplicationID *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"job_application_id,omitempty"`

	ClientID     uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index;not null" json:"freelancer_id"`

	Terms        string `gorm:"type:text" json:"terms"`
	PaymentTerms string `gorm:"type:text" json:"payment_terms"`

	Status ContractStatus `gorm:"type:varchar(20);default:pending;index" json:"status"`

	ClientSigned     bool `gorm:"default:false" json:"client_signed"`
	FreelancerSigned bool `gorm:"default:false" json:"freelancer_signed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Proposal       *Proposal       `gorm:"foreignKey:ProposalID" json:"proposal,omitempty"`
	JobApplication *JobApplication `gorm:"foreignKey:JobApplicationID" json:"job_application,omitempty"`
	Client         *User           `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Freelancer     *User           `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

func (c *Contract) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// IsFullySigned reports whether both parties have signed.
func (c *Contract) IsFullySigned() bool {
	return c.ClientSigned && c.FreelancerSigned
}

// IsParty reports whether the given user is the client or freelancer on this contract.
func (c *Contract) IsParty(userID uuid.UUID) bool {
	return c.ClientID == userID || c.FreelancerID == userID
}

// OtherParty returns the counter-party of the given user.
func (c *Contract) OtherParty(userID uuid.UUID) uuid.UUID {
	if c.ClientID == userID {
		return c.FreelancerID
	}
	return c.ClientID
}
