// internal/app/system/realtime/hub.go

// Package realtime is the room-scoped fan-out channel. Each connected
// client is keyed by a connection id the client generates once per session
// and repeats in the X-Connection-ID header on every mutating request;
// that is how a broadcast can exclude the connection that originated the
// change (it already has the authoritative result in its direct response).
//
// Delivery is best-effort and at-most-once: a client whose send buffer is
// full is dropped rather than allowed to stall the room. Per-task ordering
// comes for free from the version gate serializing writes; the hub adds no
// ordering of its own across tasks.
package realtime

import (
	"context"
	"sync"

	"github.com/dalemusser/kanbanhub/internal/app/system/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Event names mirrored by the client library.
const (
	EventTaskCreated   = "task:created"
	EventTaskUpdated   = "task:updated"
	EventTaskDeleted   = "task:deleted"
	EventRoomJoined    = "roomJoined"
	EventJoinRoomError = "joinRoomError"
)

// Event is one frame pushed to subscribers.
type Event struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId,omitempty"`
	Payload any    `json:"payload,omitempty"`
	Message string `json:"message,omitempty"`
}

// RoomChecker verifies that a room exists before a join is accepted. Join
// failures must be distinguishable from everything else so the client can
// redirect away from a dead room.
type RoomChecker interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// Hub tracks connections and their room subscriptions.
type Hub struct {
	rooms   RoomChecker
	log     *zap.Logger
	metrics *metrics.Recorder

	mu     sync.RWMutex
	conns  map[string]*Client            // connection id -> client
	byRoom map[string]map[string]*Client // room id -> connection id -> client
}

// NewHub creates a Hub. metrics may be nil.
func NewHub(rooms RoomChecker, rec *metrics.Recorder, logger *zap.Logger) *Hub {
	return &Hub{
		rooms:   rooms,
		log:     logger,
		metrics: rec,
		conns:   make(map[string]*Client),
		byRoom:  make(map[string]map[string]*Client),
	}
}

// add registers a client under its connection id. A second connection with
// the same id replaces the first (the old one is closed); the id names the
// logical client, not the socket.
func (h *Hub) add(c *Client) {
	h.mu.Lock()
	old := h.conns[c.id]
	h.conns[c.id] = c
	h.mu.Unlock()

	if old != nil {
		old.close()
	}
	h.metrics.ConnOpened()
	h.log.Info("client connected", zap.String("connection_id", c.id))
}

// remove drops a client and all its room subscriptions.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if h.conns[c.id] == c {
		delete(h.conns, c.id)
	}
	for roomID, members := range h.byRoom {
		if members[c.id] == c {
			delete(members, c.id)
			if len(members) == 0 {
				delete(h.byRoom, roomID)
			}
		}
	}
	h.mu.Unlock()

	h.metrics.ConnClosed()
	h.log.Info("client disconnected", zap.String("connection_id", c.id))
}

// join subscribes a client to a room after verifying the room exists.
// A nonexistent room gets the distinct joinRoomError frame.
func (h *Hub) join(ctx context.Context, c *Client, roomID string) {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		c.enqueue(Event{Type: EventJoinRoomError, RoomID: roomID, Message: "invalid room id"})
		return
	}
	ok, err := h.rooms.Exists(ctx, oid)
	if err != nil {
		h.log.Error("room existence check failed", zap.Error(err), zap.String("room_id", roomID))
		c.enqueue(Event{Type: EventJoinRoomError, RoomID: roomID, Message: "room lookup failed"})
		return
	}
	if !ok {
		c.enqueue(Event{Type: EventJoinRoomError, RoomID: roomID, Message: "room does not exist"})
		return
	}

	h.mu.Lock()
	members := h.byRoom[roomID]
	if members == nil {
		members = make(map[string]*Client)
		h.byRoom[roomID] = members
	}
	members[c.id] = c
	h.mu.Unlock()

	c.enqueue(Event{Type: EventRoomJoined, RoomID: roomID})
	h.log.Info("client joined room",
		zap.String("connection_id", c.id),
		zap.String("room_id", roomID))
}

// leave unsubscribes a client from a room. Leaving a room the client never
// joined is a no-op.
func (h *Hub) leave(c *Client, roomID string) {
	h.mu.Lock()
	if members := h.byRoom[roomID]; members != nil && members[c.id] == c {
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.byRoom, roomID)
		}
	}
	h.mu.Unlock()
}

// Broadcast pushes an event to every subscriber of the room except the
// connection identified by excludeConnID. An empty excludeConnID notifies
// everyone, the originator included; that is the degraded behavior when a
// caller omits its connection id.
func (h *Hub) Broadcast(roomID, excludeConnID string, event Event) {
	event.RoomID = roomID

	h.mu.RLock()
	members := h.byRoom[roomID]
	targets := make([]*Client, 0, len(members))
	for id, c := range members {
		if excludeConnID != "" && id == excludeConnID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(event) {
			// Slow consumer: drop it rather than block the room.
			h.log.Warn("dropping slow client", zap.String("connection_id", c.id))
			c.close()
		}
	}
	h.metrics.Broadcast(event.Type)
}

// SubscriberCount reports how many connections are subscribed to a room.
func (h *Hub) SubscriberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byRoom[roomID])
}

// ConnectionCount reports the number of live connections across all rooms.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
