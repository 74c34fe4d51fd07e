package bootstrap

import (
	"testing"

	"github.com/dalemusser/kanbanhub/internal/testutil"
	"go.uber.org/zap"
)

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	cfg := AppConfig{MongoDatabase: db.Name()}

	// Twice: creating collections and indexes that already exist must not
	// fail.
	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, nil, cfg, deps, zap.NewNop()); err != nil {
			t.Fatalf("EnsureSchema run %d: %v", i+1, err)
		}
	}

	names, err := db.ListCollectionNames(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("list collections: %v", err)
	}
	want := map[string]bool{"tasks": false, "rooms": false, "logs": false, "users": false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, found := range want {
		if !found {
			t.Errorf("collection %q was not created", n)
		}
	}
}
