// Package sse streams game events to authenticated clients over
// Server-Sent Events.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hakoniwa-games/questforge/cache"
	"github.com/hakoniwa-games/questforge/config"
	"github.com/hakoniwa-games/questforge/events"
	mw "github.com/hakoniwa-games/questforge/middleware"
	"go.uber.org/zap"
)

// streamedEvents are the hub events forwarded to SSE clients.
var streamedEvents = []string{
	events.LevelUp,
	events.DamageTaken,
	events.ItemAdded,
	events.ItemRemoved,
	events.ItemEquipped,
	events.ItemUnequipped,
	events.DialogueEnded,
	events.SceneChanged,
	events.SaveCompleted,
	events.SaveFailed,
	events.LoadCompleted,
}

type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Handler handles the SSE endpoint.
type Handler struct {
	hub    *events.Hub
	c      cache.Cache
	sec    config.SecurityConfig
	logger *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(hub *events.Hub, c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, c: c, sec: sec, logger: logger}
}

// ServeSSE handles GET /sse?token=<jwt>.
// Streams hub events to the client until it disconnects.
func (h *Handler) ServeSSE(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	if _, err := mw.ParseToken(tokenStr, h.sec.JWTSecret); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	exists, err := h.c.Exists(ctx, mw.SessionKey(tokenStr))
	if err != nil || !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// One hub subscription per connection, fed through a buffered channel
	// so a slow client never blocks a publisher. Overflow is dropped.
	msgCh := make(chan envelope, 64)
	subName := "sse-" + uuid.NewString()
	for _, evt := range streamedEvents {
		evt := evt
		h.hub.Subscribe(evt, 100, subName, func(_ context.Context, name string, data interface{}) (interface{}, error) {
			select {
			case msgCh <- envelope{Event: name, Data: data}:
			default:
			}
			return data, nil
		})
	}
	defer h.hub.UnsubscribeAll(subName)

	fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	c.Writer.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg := <-msgCh:
			payload, err := json.Marshal(msg.Data)
			if err != nil {
				h.logger.Warn("sse payload encode failed",
					zap.String("event", msg.Event), zap.Error(err))
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", msg.Event, payload)
			c.Writer.Flush()

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
