// internal/app/features/rooms/rename.go
package rooms

import (
	"context"
	"encoding/json"
	"net/http"

	roomstore "github.com/dalemusser/kanbanhub/internal/app/store/rooms"
	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/sanitize"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleRename handles PATCH /api/rooms/{roomID}. Any member may rename;
// activity entries keep their denormalized names, so history stays intact.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	roomID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "roomID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := sanitize.Text(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "room name is required")
		return
	}
	if len([]rune(name)) > maxNameLen {
		respondError(w, http.StatusBadRequest, "room name is too long (max 50 characters)")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, roomID)
	if err != nil {
		if err == roomstore.ErrNotFound {
			respondError(w, http.StatusNotFound, "room not found")
			return
		}
		h.Log.Error("room lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !room.HasMember(user.ID) {
		respondError(w, http.StatusForbidden, "not a member of this room")
		return
	}

	if err := h.Rooms.Rename(ctx, roomID, name); err != nil {
		if err == roomstore.ErrNotFound {
			respondError(w, http.StatusNotFound, "room not found")
			return
		}
		h.Log.Error("room rename failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	room.Name = name
	respondJSON(w, http.StatusOK, map[string]any{"room": newRoomView(room)})
}
