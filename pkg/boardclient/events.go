// Package boardclient is the Go client for the board service: a thin REST
// and websocket transport plus the reconciliation state machine that keeps
// a local board consistent under optimistic edits, server conflicts, and
// broadcast events from other users.
package boardclient

import (
	"encoding/json"
	"time"
)

// Event type names pushed over the websocket.
const (
	EventConnected     = "connected"
	EventTaskCreated   = "task:created"
	EventTaskUpdated   = "task:updated"
	EventTaskDeleted   = "task:deleted"
	EventRoomJoined    = "roomJoined"
	EventJoinRoomError = "joinRoomError"
)

// UserRef is a resolved user reference as the server reports assignees and
// members.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Task is the client-side view of a task.
type Task struct {
	ID           string    `json:"id"`
	RoomID       string    `json:"roomId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	AssignedUser *UserRef  `json:"assignedUser"`
	Priority     string    `json:"priority"`
	Status       string    `json:"status"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LogEntry is one activity feed item.
type LogEntry struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	User      string    `json:"user"`
	Target    string    `json:"target"`
	Action    string    `json:"action"`
	Changes   string    `json:"changes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Room is a room summary.
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedBy   string    `json:"createdBy"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BoardState is the full payload returned when opening a room.
type BoardState struct {
	Room    Room       `json:"room"`
	Members []UserRef  `json:"members"`
	Tasks   []Task     `json:"tasks"`
	Logs    []LogEntry `json:"logs"`
}

// CreateResult mirrors the create response and the task:created payload.
type CreateResult struct {
	Task Task     `json:"task"`
	Log  LogEntry `json:"log"`
}

// UpdateResult mirrors the update response and the task:updated payload.
// Changes holds only the fields the mutation touched, plus "version".
type UpdateResult struct {
	ID      string         `json:"id"`
	Changes map[string]any `json:"changes"`
	Log     LogEntry       `json:"log"`
}

// DeleteResult mirrors the delete response and the task:deleted payload.
type DeleteResult struct {
	ID  string   `json:"id"`
	Log LogEntry `json:"log"`
}

// Event is one frame received over the websocket. Payload stays raw until
// the caller knows the type.
type Event struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Decode unmarshals the event payload into v (a *CreateResult,
// *UpdateResult, or *DeleteResult depending on Type).
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}
