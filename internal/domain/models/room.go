// internal/domain/models/room.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Room is a shared board workspace.
//
// The creator is always a member. Tasks and logs reference their room via
// a room_id field on their own documents rather than id arrays here, so a
// task mutation never needs a second write against the room document.
type Room struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	NameCI    string               `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Members   []primitive.ObjectID `bson:"members" json:"members"`
	CreatedBy primitive.ObjectID   `bson:"created_by" json:"created_by"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
}

// HasMember reports whether id is in the room's member list.
func (r Room) HasMember(id primitive.ObjectID) bool {
	for _, m := range r.Members {
		if m == id {
			return true
		}
	}
	return false
}
