// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task status values. InProgress keeps the wire spelling clients expect.
const (
	StatusTodo       = "todo"
	StatusInProgress = "inProgress"
	StatusDone       = "done"
)

// Task is one card on a room's board.
//
// Version is the optimistic-lock token: it starts at 1 and is incremented
// by exactly 1 on every successful mutation (forced or not). It is never
// decremented or reused; all writes that change task fields must go through
// the task store's conditional/force update so the counter stays honest.
type Task struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RoomID       primitive.ObjectID  `bson:"room_id" json:"room_id"`
	Title        string              `bson:"title" json:"title"`
	Description  string              `bson:"description,omitempty" json:"description,omitempty"`
	AssignedUser *primitive.ObjectID `bson:"assigned_user,omitempty" json:"assigned_user,omitempty"`
	Priority     string              `bson:"priority" json:"priority"` // low | medium | high
	Status       string              `bson:"status" json:"status"`     // todo | inProgress | done
	Version      int64               `bson:"version" json:"version"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsValidPriority reports whether p is one of the allowed priority values.
func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// IsValidStatus reports whether s is one of the allowed status values.
func IsValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}
