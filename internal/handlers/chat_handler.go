package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/realtime"
	"github.com/talentlink/talentlink/internal/services/notify"
)

type ChatHandler struct {
	DB     *gorm.DB
	Hub    *realtime.Hub
	Notify *notify.Service
}

func NewChatHandler(db *gorm.DB, hub *realtime.Hub, n *notify.Service) *ChatHandler {
	return &ChatHandler{DB: db, Hub: hub, Notify: n}
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	var conversations []models.Conversation
	if err := h.DB.Preload("Client").Preload("Freelancer").
		Where("client_id = ? OR freelancer_id = ?", userID, userID).
		Order("last_message_at DESC NULLS LAST").
		Find(&conversations).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch conversations")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    conversations,
	})
}

type conversationReq struct {
	UserID string `json:"user_id"`
}

// StartConversation gets or creates the conversation between the acting user
// and the given counterpart. The client/freelancer slots follow the users'
// roles so the pair is stored once regardless of who starts.
func (h *ChatHandler) StartConversation(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	var req conversationReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	otherID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user_id")
	}
	if otherID == userID {
		return fail(c, fiber.StatusBadRequest, "Cannot start a conversation with yourself")
	}

	var me, other models.User
	if err := h.DB.First(&me, "id = ?", userID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	if err := h.DB.First(&other, "id = ?", otherID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "User not found")
	}

	clientID, freelancerID := userID, otherID
	if me.Role == models.RoleFreelancer {
		clientID, freelancerID = otherID, userID
	}

	var conv models.Conversation
	err = h.DB.Where("client_id = ? AND freelancer_id = ?", clientID, freelancerID).
		First(&conv).Error
	if err == gorm.ErrRecordNotFound {
		conv = models.Conversation{ClientID: clientID, FreelancerID: freelancerID}
		if err := h.DB.Create(&conv).Error; err != nil {
			return fail(c, fiber.StatusInternalServerError, "Failed to create conversation")
		}
	} else if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch conversation")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    conv,
	})
}

func (h *ChatHandler) conversationForParty(c *fiber.Ctx) (*models.Conversation, uuid.UUID, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return nil, uuid.Nil, err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return nil, uuid.Nil, err
	}

	var conv models.Conversation
	if err := h.DB.First(&conv, "id = ?", id).Error; err != nil {
		return nil, uuid.Nil, fiber.NewError(fiber.StatusNotFound, "Conversation not found")
	}
	if conv.ClientID != userID && conv.FreelancerID != userID {
		return nil, uuid.Nil, fiber.NewError(fiber.StatusForbidden, "Access denied")
	}
	return &conv, userID, nil
}

func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	conv, userID, err := h.conversationForParty(c)
	if err != nil {
		return failFiber(c, err)
	}

	var messages []models.Message
	if err := h.DB.Where("conversation_id = ?", conv.ID).
		Order("created_at ASC").Find(&messages).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch messages")
	}

	// Reading the thread marks the counterpart's messages as read.
	h.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conv.ID, userID, false).
		Update("is_read", true)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    messages,
	})
}

type messageReq struct {
	Text string `json:"text"`
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	conv, userID, err := h.conversationForParty(c)
	if err != nil {
		return failFiber(c, err)
	}

	var req messageReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return fail(c, fiber.StatusBadRequest, "Message text is required")
	}

	msg := models.Message{
		ConversationID: conv.ID,
		SenderID:       userID,
		Text:           req.Text,
		Type:           "text",
	}
	if err := h.DB.Create(&msg).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to send message")
	}

	now := time.Now()
	conv.LastMessageAt = &now
	h.DB.Save(conv)

	recipient := conv.ClientID
	if recipient == userID {
		recipient = conv.FreelancerID
	}

	if h.Hub != nil {
		h.Hub.SendToUser(recipient, map[string]interface{}{
			"type":    "chat_message",
			"message": msg,
		})
	}
	h.Notify.Notify(recipient, models.NotificationTypeMessage,
		"New message",
		req.Text,
		map[string]interface{}{
			"conversation_id": conv.ID,
			"message_id":      msg.ID,
		})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    msg,
	})
}
