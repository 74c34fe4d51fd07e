package roomstore_test

import (
	"testing"

	roomstore "github.com/dalemusser/kanbanhub/internal/app/store/rooms"
	"github.com/dalemusser/kanbanhub/internal/testutil"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreate_CreatorIsAlwaysMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := roomstore.New(db)
	creator := primitive.NewObjectID()

	room, err := store.Create(ctx, models.Room{Name: "Sprint", CreatedBy: creator})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !room.HasMember(creator) {
		t.Error("creator missing from members")
	}
	if room.NameCI == "" {
		t.Error("name_ci not folded")
	}
}

func TestAddMember_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := roomstore.New(db)
	creator := primitive.NewObjectID()
	room, err := store.Create(ctx, models.Room{Name: "Sprint", CreatedBy: creator})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	visitor := primitive.NewObjectID()
	for i := 0; i < 3; i++ {
		if err := store.AddMember(ctx, room.ID, visitor); err != nil {
			t.Fatalf("AddMember %d: %v", i, err)
		}
	}

	got, err := store.GetByID(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Members) != 2 {
		t.Errorf("members: got %d, want 2", len(got.Members))
	}
}

func TestRemoveMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := roomstore.New(db)
	creator := primitive.NewObjectID()
	member := primitive.NewObjectID()
	room, err := store.Create(ctx, models.Room{
		Name: "Sprint", CreatedBy: creator,
		Members: []primitive.ObjectID{member},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.RemoveMember(ctx, room.ID, member); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	got, err := store.GetByID(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.HasMember(member) {
		t.Error("member still present")
	}
	if !got.HasMember(creator) {
		t.Error("creator removed by mistake")
	}
}

func TestFindByMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := roomstore.New(db)
	user := primitive.NewObjectID()

	if _, err := store.Create(ctx, models.Room{Name: "Mine", CreatedBy: user}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, models.Room{Name: "Theirs", CreatedBy: primitive.NewObjectID()}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rooms, err := store.FindByMember(ctx, user)
	if err != nil {
		t.Fatalf("FindByMember: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Name != "Mine" {
		t.Errorf("rooms: %+v", rooms)
	}
}

func TestExists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := roomstore.New(db)
	room, err := store.Create(ctx, models.Room{Name: "Sprint", CreatedBy: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := store.Exists(ctx, room.ID)
	if err != nil || !ok {
		t.Errorf("Exists(existing): %v %v", ok, err)
	}
	ok, err = store.Exists(ctx, primitive.NewObjectID())
	if err != nil || ok {
		t.Errorf("Exists(missing): %v %v", ok, err)
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := roomstore.New(db)
	room, err := store.Create(ctx, models.Room{Name: "Sprint", CreatedBy: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Delete(ctx, room.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, room.ID); err != roomstore.ErrNotFound {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}
