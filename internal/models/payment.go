package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	// Declared for parity with the data model; no dispute flow exists yet.
	PaymentStatusDisputed PaymentStatus = "disputed"
)

// PaymentTransaction is an append-only payment log entry. The client records a
// payment made outside the platform and the freelancer confirms receipt.
type PaymentTransaction struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;index;not null" json:"workspace_id"`

	Amount      int64  `gorm:"not null" json:"amount"`
	Description string `gorm:"type:text" json:"description"`

	PaidByID     uuid.UUID `gorm:"type:uuid;not null" json:"paid_by_id"`
	ReceivedByID uuid.UUID `gorm:"type:uuid;not null" json:"received_by_id"`

	Status              PaymentStatus `gorm:"type:varchar(20);default:pending" json:"status"`
	FreelancerConfirmed bool          `gorm:"default:false" json:"freelancer_confirmed"`

	PaymentMethod string `gorm:"size:100" json:"payment_method"`
	TransactionID string `gorm:"size:200" json:"transaction_id"`

	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`

	Workspace  *Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	PaidBy     *User      `gorm:"foreignKey:PaidByID" json:"paid_by,omitempty"`
	ReceivedBy *User      `gorm:"foreignKey:ReceivedByID" json:"received_by,omitempty"`
}

func (p *PaymentTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

type PaymentRequestStatus string

const (
	PaymentRequestPending  PaymentRequestStatus = "pending"
	PaymentRequestApproved PaymentRequestStatus = "approved"
	PaymentRequestRejected PaymentRequestStatus = "rejected"
	// Declared but never produced by any transition; see DESIGN.md.
	PaymentRequestPaid PaymentRequestStatus = "paid"
)

// PaymentRequest is a freelancer-initiated request for payment that the
// client approves or rejects.
type PaymentRequest struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID  uuid.UUID `gorm:"type:uuid;index;not null" json:"workspace_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null" json:"freelancer_id"`

	Amount  int64  `gorm:"not null" json:"amount"`
	Message string `gorm:"type:text" json:"message"`

	Status PaymentRequestStatus `gorm:"type:varchar(20);default:pending" json:"status"`

	// Linked transaction once a request is marked paid; unused today.
	TransactionID *uuid.UUID `gorm:"type:uuid" json:"transaction_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Workspace   *Workspace          `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	Freelancer  *User               `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	Transaction *PaymentTransaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
}

func (r *PaymentRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
