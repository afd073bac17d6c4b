package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nafishasalsabil/reddit-clone/internal/models"
	"github.com/nafishasalsabil/reddit-clone/internal/stream"
	"github.com/nafishasalsabil/reddit-clone/internal/votes"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// WSRequest is a subscribe/unsubscribe command from a client.
type WSRequest struct {
	Action     string `json:"action"` // "subscribe" or "unsubscribe"
	TargetType string `json:"target_type"`
	TargetID   int    `json:"target_id"`
}

// WSEvent is a pushed update. Type is "aggregate" or "my_vote".
type WSEvent struct {
	Type      string                 `json:"type"`
	Aggregate *stream.AggregateEvent `json:"aggregate,omitempty"`
	Target    *models.Target         `json:"target,omitempty"`
	Value     int                    `json:"value,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

type StreamHandler struct {
	hub      *stream.Hub
	resolver *votes.Resolver
}

func NewStreamHandler(hub *stream.Hub, resolver *votes.Resolver) *StreamHandler {
	return &StreamHandler{hub: hub, resolver: resolver}
}

// Targets upgrades to a websocket carrying live aggregate and own-vote
// streams for the targets the client subscribes to. One hub feed is
// shared across all sockets watching the same target.
func (h *StreamHandler) Targets(c *gin.Context) {
	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()

	sessionID := uuid.New().String()
	slog.Info("stream session started", "sessionID", sessionID, "user_id", voterID)

	// one writer goroutine owns the socket; hub callbacks only enqueue
	send := make(chan WSEvent, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for ev := range send {
			if err := ws.WriteJSON(ev); err != nil {
				slog.Warn("failed to write stream event", "sessionID", sessionID, "error", err)
				return
			}
		}
	}()

	cancels := make(map[models.Target]func())
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
		close(send)
		<-writerDone
		slog.Info("stream session closed", "sessionID", sessionID)
	}()

	enqueue := func(ev WSEvent) {
		select {
		case send <- ev:
		default:
			slog.Warn("stream session send buffer full, dropping event", "sessionID", sessionID)
		}
	}

	for {
		var req WSRequest
		if err := ws.ReadJSON(&req); err != nil {
			return
		}

		target, err := h.resolver.Resolve(c.Request.Context(), models.TargetType(req.TargetType), req.TargetID)
		if err != nil {
			enqueue(WSEvent{Type: "error", Error: err.Error()})
			continue
		}

		switch req.Action {
		case "subscribe":
			if _, exists := cancels[target]; exists {
				continue
			}
			t := target
			cancelAgg := h.hub.Subscribe(t, func(ev stream.AggregateEvent) {
				enqueue(WSEvent{Type: "aggregate", Aggregate: &ev})
			})
			cancelVote := h.hub.SubscribeVote(voterID, t, func(value int) {
				enqueue(WSEvent{Type: "my_vote", Target: &t, Value: value})
			})
			cancels[t] = func() {
				cancelAgg()
				cancelVote()
			}
		case "unsubscribe":
			if cancel, exists := cancels[target]; exists {
				cancel()
				delete(cancels, target)
			}
		default:
			enqueue(WSEvent{Type: "error", Error: "unknown action"})
		}
	}
}
