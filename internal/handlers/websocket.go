package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arnold/wellness-api/internal/middleware"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
)

// Event types sent over WebSocket
const (
	EventFeedEntry     = "feed_entry"
	EventMessagePosted = "message_posted"
)

// WSEvent is the JSON message sent to connected clients
type WSEvent struct {
	Type    string      `json:"type"`
	GroupID string      `json:"groupId"`
	UserID  string      `json:"userId"`
	Data    interface{} `json:"data,omitempty"`
}

// connection wraps a websocket connection with its user ID
type connection struct {
	conn   *websocket.Conn
	userID uuid.UUID
	mu     sync.Mutex
}

func (c *connection) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub manages WebSocket connections per group
type Hub struct {
	mu      sync.RWMutex
	rooms   map[uuid.UUID]map[*connection]bool // groupID -> set of connections
	members repository.MembershipRepository
	log     *zap.Logger
}

func NewHub(members repository.MembershipRepository, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms:   make(map[uuid.UUID]map[*connection]bool),
		members: members,
		log:     log,
	}
}

// register adds a connection to a group room
func (h *Hub) register(groupID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[groupID] == nil {
		h.rooms[groupID] = make(map[*connection]bool)
	}
	h.rooms[groupID][conn] = true
	h.log.Debug("ws register",
		zap.String("userId", conn.userID.String()),
		zap.String("groupId", groupID.String()),
		zap.Int("total", len(h.rooms[groupID])),
	)
}

// unregister removes a connection from a group room
func (h *Hub) unregister(groupID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[groupID]; ok {
		delete(conns, conn)
		h.log.Debug("ws unregister",
			zap.String("userId", conn.userID.String()),
			zap.String("groupId", groupID.String()),
			zap.Int("remaining", len(conns)),
		)
		if len(conns) == 0 {
			delete(h.rooms, groupID)
		}
	}
}

// Broadcast sends an event to all connections in a group room, excluding the sender
func (h *Hub) Broadcast(groupID uuid.UUID, excludeUserID uuid.UUID, event WSEvent) {
	h.mu.RLock()
	conns := make([]*connection, 0, len(h.rooms[groupID]))
	for c := range h.rooms[groupID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Warn("ws broadcast marshal", zap.Error(err))
		return
	}

	for _, c := range conns {
		// Don't send to the user who triggered the event
		if c.userID == excludeUserID {
			continue
		}
		if err := c.write(msg); err != nil {
			h.log.Debug("ws write", zap.String("userId", c.userID.String()), zap.Error(err))
		}
	}
}

// BroadcastFeed pushes a new feed entry to everyone watching the group.
func (h *Hub) BroadcastFeed(groupID uuid.UUID, entry models.GroupFeedActivity) {
	h.Broadcast(groupID, uuid.Nil, WSEvent{
		Type:    EventFeedEntry,
		GroupID: groupID.String(),
		UserID:  entry.UserID.String(),
		Data:    entry,
	})
}

// WebSocketUpgrade is the middleware that checks the upgrade request and validates JWT
func WebSocketUpgrade(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// Authenticate via query param: ?token=<jwt>
		tokenString := c.Query("token")
		if tokenString == "" {
			// Also check Authorization header for non-browser clients
			authHeader := c.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				tokenString = ""
			}
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		claims, err := middleware.ParseToken(secret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}

// HandleWebSocket handles a WebSocket connection for a specific group.
// Only members may subscribe.
func (h *Hub) HandleWebSocket(c *websocket.Conn) {
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		c.Close()
		return
	}

	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}

	if _, err := h.members.Get(context.Background(), groupID, userID); err != nil {
		c.Close()
		return
	}

	conn := &connection{conn: c, userID: userID}
	h.register(groupID, conn)
	defer h.unregister(groupID, conn)

	// Keep connection alive; clients send pings/keepalives
	for {
		_, _, err := c.ReadMessage()
		if err != nil {
			break
		}
	}
}
