// internal/domain/models/logentry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Log entry action kinds.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// LogEntry is one append-only activity record for a room.
//
// User and Target are denormalized display strings captured at write time,
// not references. That is intentional: the feed stays historically accurate
// even after the user or task is renamed or deleted. Do not replace them
// with foreign keys.
type LogEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID    primitive.ObjectID `bson:"room_id" json:"room_id"`
	User      string             `bson:"user" json:"user"`     // acting user's display name
	Target    string             `bson:"target" json:"target"` // task title at time of action
	Action    string             `bson:"action" json:"action"` // create | update | delete
	Changes   string             `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
