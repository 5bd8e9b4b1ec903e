package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/talentlink/talentlink/internal/realtime"
	"github.com/talentlink/talentlink/internal/utils"
)

type WSHandler struct {
	Hub       *realtime.Hub
	JWTSecret string
}

func NewWSHandler(hub *realtime.Hub, secret string) *WSHandler {
	return &WSHandler{Hub: hub, JWTSecret: secret}
}

// Upgrade gates the websocket upgrade. Browsers cannot set headers on a ws
// handshake, so the token rides in the query string.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		return fiber.ErrUnauthorized
	}
	claims, err := utils.ParseJWT(h.JWTSecret, token)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	c.Locals("wsUserId", claims.UserID)
	return c.Next()
}

// Serve runs the per-connection pumps. Incoming frames are drained and
// discarded; the socket is push-only.
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		rawID, _ := conn.Locals("wsUserId").(string)
		userID, err := uuid.Parse(rawID)
		if err != nil {
			conn.Close()
			return
		}

		client := &realtime.Client{
			ID:     uuid.NewString(),
			UserID: userID,
			Conn:   realtime.NewWebSocketConn(conn),
			Send:   make(chan []byte, 64),
		}

		h.Hub.RegisterClient(client)
		defer h.Hub.UnregisterClient(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case msg, ok := <-client.Send:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.Printf("ws write failed for %s: %v", userID, err)
					return
				}
			case <-done:
				return
			}
		}
	})
}
