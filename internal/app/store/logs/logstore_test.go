package logstore_test

import (
	"testing"
	"time"

	logstore "github.com/dalemusser/kanbanhub/internal/app/store/logs"
	"github.com/dalemusser/kanbanhub/internal/testutil"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAppendAndRecentByRoom(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := logstore.New(db)
	roomID := primitive.NewObjectID()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		_, err := store.Append(ctx, models.LogEntry{
			RoomID:    roomID,
			User:      "Ada",
			Target:    "Task",
			Action:    models.ActionUpdate,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	entries, err := store.RecentByRoom(ctx, roomID, 20)
	if err != nil {
		t.Fatalf("RecentByRoom: %v", err)
	}
	if len(entries) != 20 {
		t.Fatalf("entries: got %d, want 20", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.After(entries[i-1].Timestamp) {
			t.Fatalf("entries not newest-first at %d", i)
		}
	}
	// The oldest 5 fell outside the window.
	if entries[len(entries)-1].Timestamp.Before(base.Add(4 * time.Minute)) {
		t.Error("window includes entries that should have been cut")
	}
}

func TestAppend_FillsIdentityAndTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := logstore.New(db)
	entry, err := store.Append(ctx, models.LogEntry{
		RoomID: primitive.NewObjectID(),
		User:   "Ada",
		Target: "Task",
		Action: models.ActionCreate,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if entry.ID.IsZero() {
		t.Error("id not assigned")
	}
	if entry.Timestamp.IsZero() {
		t.Error("timestamp not assigned")
	}
}

func TestDeleteByRoom(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := logstore.New(db)
	roomA := primitive.NewObjectID()
	roomB := primitive.NewObjectID()

	for _, roomID := range []primitive.ObjectID{roomA, roomA, roomB} {
		if _, err := store.Append(ctx, models.LogEntry{RoomID: roomID, User: "Ada", Action: models.ActionCreate}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	n, err := store.DeleteByRoom(ctx, roomA)
	if err != nil {
		t.Fatalf("DeleteByRoom: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted: got %d, want 2", n)
	}

	left, err := store.RecentByRoom(ctx, roomB, 10)
	if err != nil {
		t.Fatalf("RecentByRoom: %v", err)
	}
	if len(left) != 1 {
		t.Errorf("roomB entries: got %d, want 1", len(left))
	}
}
