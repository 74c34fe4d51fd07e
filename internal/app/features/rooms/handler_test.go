package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	roomstore "github.com/dalemusser/kanbanhub/internal/app/store/rooms"
	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/* ------------------------------ fakes ------------------------------ */

type fakeRooms struct {
	rooms map[primitive.ObjectID]models.Room
}

func (f *fakeRooms) Create(ctx context.Context, room models.Room) (models.Room, error) {
	room.ID = primitive.NewObjectID()
	if !room.HasMember(room.CreatedBy) {
		room.Members = append(room.Members, room.CreatedBy)
	}
	room.CreatedAt = time.Now().UTC()
	f.rooms[room.ID] = room
	return room, nil
}

func (f *fakeRooms) GetByID(ctx context.Context, id primitive.ObjectID) (models.Room, error) {
	room, ok := f.rooms[id]
	if !ok {
		return models.Room{}, roomstore.ErrNotFound
	}
	return room, nil
}

func (f *fakeRooms) FindByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Room, error) {
	var out []models.Room
	for _, room := range f.rooms {
		if room.HasMember(userID) {
			out = append(out, room)
		}
	}
	return out, nil
}

func (f *fakeRooms) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	room, ok := f.rooms[id]
	if !ok {
		return roomstore.ErrNotFound
	}
	room.Name = name
	f.rooms[id] = room
	return nil
}

func (f *fakeRooms) AddMember(ctx context.Context, id, userID primitive.ObjectID) error {
	room, ok := f.rooms[id]
	if !ok {
		return roomstore.ErrNotFound
	}
	if !room.HasMember(userID) {
		room.Members = append(room.Members, userID)
		f.rooms[id] = room
	}
	return nil
}

func (f *fakeRooms) RemoveMember(ctx context.Context, id, userID primitive.ObjectID) error {
	room, ok := f.rooms[id]
	if !ok {
		return roomstore.ErrNotFound
	}
	var members []primitive.ObjectID
	for _, m := range room.Members {
		if m != userID {
			members = append(members, m)
		}
	}
	room.Members = members
	f.rooms[id] = room
	return nil
}

func (f *fakeRooms) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.rooms[id]; !ok {
		return roomstore.ErrNotFound
	}
	delete(f.rooms, id)
	return nil
}

type fakeTasks struct {
	tasks   map[primitive.ObjectID]models.Task
	cascade int
}

func (f *fakeTasks) FindByRoom(ctx context.Context, roomID primitive.ObjectID) ([]models.Task, error) {
	var out []models.Task
	for _, t := range f.tasks {
		if t.RoomID == roomID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTasks) DeleteByRoom(ctx context.Context, roomID primitive.ObjectID) (int64, error) {
	var n int64
	for id, t := range f.tasks {
		if t.RoomID == roomID {
			delete(f.tasks, id)
			n++
		}
	}
	f.cascade++
	return n, nil
}

type fakeLogs struct {
	logs    []models.LogEntry
	cascade int
}

func (f *fakeLogs) RecentByRoom(ctx context.Context, roomID primitive.ObjectID, limit int64) ([]models.LogEntry, error) {
	var out []models.LogEntry
	for _, e := range f.logs {
		if e.RoomID == roomID && int64(len(out)) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLogs) DeleteByRoom(ctx context.Context, roomID primitive.ObjectID) (int64, error) {
	var kept []models.LogEntry
	var n int64
	for _, e := range f.logs {
		if e.RoomID == roomID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	f.logs = kept
	f.cascade++
	return n, nil
}

type fakeUsers struct {
	users map[primitive.ObjectID]models.User
}

func (f *fakeUsers) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := map[primitive.ObjectID]models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

/* ----------------------------- fixtures ----------------------------- */

type testEnv struct {
	handler *Handler
	rooms   *fakeRooms
	tasks   *fakeTasks
	logs    *fakeLogs
	users   *fakeUsers
	creator *auth.SessionUser
	room    models.Room
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	creator := &auth.SessionUser{ID: primitive.NewObjectID(), Name: "Ada", Email: "ada@test.com"}
	room := models.Room{
		ID:        primitive.NewObjectID(),
		Name:      "Sprint",
		Members:   []primitive.ObjectID{creator.ID},
		CreatedBy: creator.ID,
		CreatedAt: time.Now().UTC(),
	}

	fr := &fakeRooms{rooms: map[primitive.ObjectID]models.Room{room.ID: room}}
	ft := &fakeTasks{tasks: map[primitive.ObjectID]models.Task{}}
	fl := &fakeLogs{}
	fu := &fakeUsers{users: map[primitive.ObjectID]models.User{
		creator.ID: {ID: creator.ID, Name: creator.Name, Email: creator.Email},
	}}

	h := &Handler{
		Rooms:    fr,
		Tasks:    ft,
		Logs:     fl,
		Users:    fu,
		LogLimit: 20,
		Log:      zap.NewNop(),
	}
	return &testEnv{handler: h, rooms: fr, tasks: ft, logs: fl, users: fu, creator: creator, room: room}
}

func (e *testEnv) request(t *testing.T, user *auth.SessionUser, method string, body any, params map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, "/", &buf)
	req.Header.Set("Content-Type", "application/json")
	req = auth.WithTestUser(req, user)

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

/* ------------------------------- tests ------------------------------- */

func TestHandleCreate_CreatorBecomesMember(t *testing.T) {
	env := newTestEnv(t)

	req := env.request(t, env.creator, http.MethodPost, map[string]string{"name": "  Planning  "}, nil)
	rec := httptest.NewRecorder()
	env.handler.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Room struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			MemberCount int    `json:"memberCount"`
		} `json:"room"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Room.Name != "Planning" {
		t.Errorf("name not trimmed: %q", resp.Room.Name)
	}
	if resp.Room.MemberCount != 1 {
		t.Errorf("memberCount: got %d, want 1", resp.Room.MemberCount)
	}
}

func TestHandleCreate_NameValidation(t *testing.T) {
	env := newTestEnv(t)

	long := make([]rune, maxNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	for _, name := range []string{"", "   ", "<i></i>", string(long)} {
		req := env.request(t, env.creator, http.MethodPost, map[string]string{"name": name}, nil)
		rec := httptest.NewRecorder()
		env.handler.HandleCreate(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("name %q: status %d, want 400", name, rec.Code)
		}
	}
}

func TestHandleGet_AutoJoinsAndReturnsBoard(t *testing.T) {
	env := newTestEnv(t)

	// Room content to come back in the board payload.
	taskID := primitive.NewObjectID()
	env.tasks.tasks[taskID] = models.Task{
		ID: taskID, RoomID: env.room.ID, Title: "Ship it",
		Priority: models.PriorityHigh, Status: models.StatusTodo, Version: 2,
	}
	env.logs.logs = []models.LogEntry{
		{ID: primitive.NewObjectID(), RoomID: env.room.ID, User: "Ada", Action: models.ActionCreate, Target: "Ship it"},
	}

	visitor := &auth.SessionUser{ID: primitive.NewObjectID(), Name: "Grace", Email: "grace@test.com"}
	env.users.users[visitor.ID] = models.User{ID: visitor.ID, Name: visitor.Name}

	req := env.request(t, visitor, http.MethodGet, nil, map[string]string{"roomID": env.room.ID.Hex()})
	rec := httptest.NewRecorder()
	env.handler.HandleGet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Members []struct {
			Name string `json:"name"`
		} `json:"members"`
		Tasks []struct {
			Title string `json:"title"`
		} `json:"tasks"`
		Logs []struct {
			User string `json:"user"`
		} `json:"logs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(resp.Members) != 2 {
		t.Errorf("members: got %d, want 2 (visitor auto-joined)", len(resp.Members))
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].Title != "Ship it" {
		t.Errorf("tasks: %+v", resp.Tasks)
	}
	if len(resp.Logs) != 1 || resp.Logs[0].User != "Ada" {
		t.Errorf("logs: %+v", resp.Logs)
	}

	// Opening again must not duplicate membership.
	req = env.request(t, visitor, http.MethodGet, nil, map[string]string{"roomID": env.room.ID.Hex()})
	env.handler.HandleGet(httptest.NewRecorder(), req)
	if n := len(env.rooms.rooms[env.room.ID].Members); n != 2 {
		t.Errorf("members after reopen: got %d, want 2", n)
	}
}

func TestHandleLeave_CreatorForbidden(t *testing.T) {
	env := newTestEnv(t)

	req := env.request(t, env.creator, http.MethodPost, nil, map[string]string{"roomID": env.room.ID.Hex()})
	rec := httptest.NewRecorder()
	env.handler.HandleLeave(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", rec.Code)
	}
}

func TestHandleLeave_MemberLeaves(t *testing.T) {
	env := newTestEnv(t)

	member := &auth.SessionUser{ID: primitive.NewObjectID(), Name: "Grace"}
	room := env.rooms.rooms[env.room.ID]
	room.Members = append(room.Members, member.ID)
	env.rooms.rooms[env.room.ID] = room

	req := env.request(t, member, http.MethodPost, nil, map[string]string{"roomID": env.room.ID.Hex()})
	rec := httptest.NewRecorder()
	env.handler.HandleLeave(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	if env.rooms.rooms[env.room.ID].HasMember(member.ID) {
		t.Error("member still present after leave")
	}
}

func TestHandleDelete_CreatorOnlyWithCascade(t *testing.T) {
	env := newTestEnv(t)

	taskID := primitive.NewObjectID()
	env.tasks.tasks[taskID] = models.Task{ID: taskID, RoomID: env.room.ID, Title: "Orphan-to-be"}
	env.logs.logs = []models.LogEntry{{ID: primitive.NewObjectID(), RoomID: env.room.ID}}

	// Non-creator is rejected.
	outsider := &auth.SessionUser{ID: primitive.NewObjectID(), Name: "Mallory"}
	req := env.request(t, outsider, http.MethodDelete, nil, map[string]string{"roomID": env.room.ID.Hex()})
	rec := httptest.NewRecorder()
	env.handler.HandleDelete(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider delete: status %d, want 403", rec.Code)
	}

	// Creator succeeds and everything belonging to the room goes with it.
	req = env.request(t, env.creator, http.MethodDelete, nil, map[string]string{"roomID": env.room.ID.Hex()})
	rec = httptest.NewRecorder()
	env.handler.HandleDelete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("creator delete: status %d, body %s", rec.Code, rec.Body.String())
	}
	if _, ok := env.rooms.rooms[env.room.ID]; ok {
		t.Error("room still present")
	}
	if len(env.tasks.tasks) != 0 {
		t.Error("tasks not cascaded")
	}
	if len(env.logs.logs) != 0 {
		t.Error("logs not cascaded")
	}
}

func TestHandleRename_MemberOnly(t *testing.T) {
	env := newTestEnv(t)

	outsider := &auth.SessionUser{ID: primitive.NewObjectID(), Name: "Mallory"}
	req := env.request(t, outsider, http.MethodPatch, map[string]string{"name": "Hijacked"}, map[string]string{"roomID": env.room.ID.Hex()})
	rec := httptest.NewRecorder()
	env.handler.HandleRename(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider rename: status %d, want 403", rec.Code)
	}

	req = env.request(t, env.creator, http.MethodPatch, map[string]string{"name": "Renamed"}, map[string]string{"roomID": env.room.ID.Hex()})
	rec = httptest.NewRecorder()
	env.handler.HandleRename(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: status %d, body %s", rec.Code, rec.Body.String())
	}
	if env.rooms.rooms[env.room.ID].Name != "Renamed" {
		t.Errorf("name: %q", env.rooms.rooms[env.room.ID].Name)
	}
}

func TestHandleList_OnlyCallersRooms(t *testing.T) {
	env := newTestEnv(t)

	// A room the caller is not in.
	other := models.Room{
		ID:        primitive.NewObjectID(),
		Name:      "Other",
		Members:   []primitive.ObjectID{primitive.NewObjectID()},
		CreatedBy: primitive.NewObjectID(),
	}
	env.rooms.rooms[other.ID] = other

	req := env.request(t, env.creator, http.MethodGet, nil, nil)
	rec := httptest.NewRecorder()
	env.handler.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Rooms []struct {
			ID string `json:"id"`
		} `json:"rooms"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(resp.Rooms) != 1 || resp.Rooms[0].ID != env.room.ID.Hex() {
		t.Errorf("rooms: %+v", resp.Rooms)
	}
}
