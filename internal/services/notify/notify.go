package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/realtime"
)

// Service is the notification sink. Every call persists a row, pushes to any
// open websocket of the recipient and publishes to Redis. All failures are
// logged and swallowed: a user-facing action never fails because its
// notification could not be delivered.
type Service struct {
	DB  *gorm.DB
	Hub *realtime.Hub
	RDB *redis.Client
}

func NewService(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client) *Service {
	return &Service{DB: db, Hub: hub, RDB: rdb}
}

func (s *Service) Notify(userID uuid.UUID, typ models.NotificationType, title, message string, metadata map[string]interface{}) {
	n := models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
	}

	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			n.Metadata = b
		}
	}

	if err := s.DB.Create(&n).Error; err != nil {
		log.Printf("notify: failed to persist notification for %s: %v", userID, err)
		return
	}

	payload := map[string]interface{}{
		"type":         "notification",
		"notification": n,
	}

	if s.Hub != nil {
		s.Hub.SendToUser(userID, payload)
	}

	if s.RDB != nil {
		b, err := json.Marshal(payload)
		if err == nil {
			if err := s.RDB.Publish(context.Background(), "notifications:"+userID.String(), b).Err(); err != nil {
				log.Printf("notify: redis publish failed for %s: %v", userID, err)
			}
		}
	}
}

// NotifyBoth sends the same notification to both parties of a contract.
func (s *Service) NotifyBoth(clientID, freelancerID uuid.UUID, typ models.NotificationType, title, message string, metadata map[string]interface{}) {
	s.Notify(clientID, typ, title, message, metadata)
	s.Notify(freelancerID, typ, title, message, metadata)
}
