// internal/app/features/rooms/types.go
package rooms

import (
	"time"

	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxNameLen caps the room name, enforced after sanitization.
const maxNameLen = 50

type createRequest struct {
	Name string `json:"name"`
}

type renameRequest struct {
	Name string `json:"name"`
}

// roomView is the wire shape of a room summary.
type roomView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	Members   int       `json:"memberCount"`
	CreatedAt time.Time `json:"createdAt"`
}

func newRoomView(room models.Room) roomView {
	return roomView{
		ID:        room.ID.Hex(),
		Name:      room.Name,
		CreatedBy: room.CreatedBy.Hex(),
		Members:   len(room.Members),
		CreatedAt: room.CreatedAt,
	}
}

// taskDetail is the wire shape of a task inside the board payload.
type taskDetail struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	AssignedUser *models.UserRef `json:"assignedUser"`
	Priority     string          `json:"priority"`
	Status       string          `json:"status"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func newTaskDetail(t models.Task, assignee *models.UserRef) taskDetail {
	return taskDetail{
		ID:           t.ID.Hex(),
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

// boardResponse is the full state returned when opening a room: the room,
// its members resolved to display users, every task, and the recent slice
// of the activity feed.
type boardResponse struct {
	Room    roomView          `json:"room"`
	Members []models.UserRef  `json:"members"`
	Tasks   []taskDetail      `json:"tasks"`
	Logs    []models.LogEntry `json:"logs"`
}

// memberRefs resolves member ids to display refs, preserving membership
// order and skipping ids with no backing user.
func memberRefs(ids []primitive.ObjectID, users map[primitive.ObjectID]models.User) []models.UserRef {
	refs := make([]models.UserRef, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			refs = append(refs, u.Ref())
		}
	}
	return refs
}
