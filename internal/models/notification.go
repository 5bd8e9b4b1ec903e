package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeMessage   NotificationType = "message"
	NotificationTypeProposal  NotificationType = "proposal"
	NotificationTypeContract  NotificationType = "contract"
	NotificationTypeSystem    NotificationType = "system"
	NotificationTypeWorkspace NotificationType = "workspace"
	NotificationTypePayment   NotificationType = "payment"
	NotificationTypeReview    NotificationType = "review"
)

type Notification struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`

	Type    NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Title   string           `gorm:"size:255" json:"title"`
	Message string           `gorm:"type:text" json:"message"`

	Metadata datatypes.JSON `json:"metadata,omitempty"`

	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
