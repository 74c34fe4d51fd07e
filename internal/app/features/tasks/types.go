// internal/app/features/tasks/types.go
package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field length limits, enforced after sanitization.
const (
	maxTitleLen       = 200
	maxDescriptionLen = 500
)

// nullableID distinguishes an absent assignedUser field from an explicit
// null/empty (which means "unassign"). Plain pointers can't tell the two
// apart after json decoding.
type nullableID struct {
	Set bool
	ID  *primitive.ObjectID
}

func (n *nullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	s := string(data)
	if s == "null" || s == `""` {
		n.ID = nil
		return nil
	}
	var hex string
	if err := json.Unmarshal(data, &hex); err != nil {
		return fmt.Errorf("assignedUser must be a user id string or null")
	}
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return fmt.Errorf("assignedUser is not a valid user id")
	}
	n.ID = &oid
	return nil
}

// createRequest is the body of POST /api/rooms/{roomID}/tasks.
type createRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AssignedUser nullableID `json:"assignedUser"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
}

// updateRequest is the body of PATCH /api/rooms/{roomID}/tasks/{id}.
// Pointer fields are "absent unless supplied"; Version is mandatory unless
// Force is set.
type updateRequest struct {
	Version      *int64     `json:"version"`
	Force        bool       `json:"force"`
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	AssignedUser nullableID `json:"assignedUser"`
	Priority     *string    `json:"priority"`
	Status       *string    `json:"status"`
}

// smartAssignRequest is the body of POST .../tasks/{id}/smart-assign.
// It rides the same version gate as a manual edit.
type smartAssignRequest struct {
	Version *int64 `json:"version"`
}

// taskView is the wire shape of a task: camelCase keys and the assignee
// resolved to a display-friendly object.
type taskView struct {
	ID           string          `json:"id"`
	RoomID       string          `json:"roomId"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	AssignedUser *models.UserRef `json:"assignedUser"`
	Priority     string          `json:"priority"`
	Status       string          `json:"status"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func newTaskView(t models.Task, assignee *models.UserRef) taskView {
	return taskView{
		ID:           t.ID.Hex(),
		RoomID:       t.RoomID.Hex(),
		Title:        t.Title,
		Description:  t.Description,
		AssignedUser: assignee,
		Priority:     t.Priority,
		Status:       t.Status,
		Version:      t.Version,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// createResponse doubles as the task:created broadcast payload.
type createResponse struct {
	Task taskView        `json:"task"`
	Log  models.LogEntry `json:"log"`
}

// updateResponse doubles as the task:updated broadcast payload. Changes
// holds only the fields this mutation touched, plus the new version.
type updateResponse struct {
	ID      string          `json:"id"`
	Changes map[string]any  `json:"changes"`
	Log     models.LogEntry `json:"log"`
}

// deleteResponse doubles as the task:deleted broadcast payload.
type deleteResponse struct {
	ID  string          `json:"id"`
	Log models.LogEntry `json:"log"`
}

// conflictResponse is the 409 body: the authoritative task plus the
// caller's attempted (unapplied) changes, enough for a three-way diff.
type conflictResponse struct {
	Message    string         `json:"message"`
	ServerTask taskView       `json:"serverTask"`
	ClientTask map[string]any `json:"clientTask"`
}
