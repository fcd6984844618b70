// internal/app/store/groupchats/chatstore_test.go
package chatstore_test

import (
	"errors"
	"testing"

	"github.com/villagehq/village/internal/app/store/docstore"
	chatstore "github.com/villagehq/village/internal/app/store/groupchats"
	"github.com/villagehq/village/internal/domain/models"
	"github.com/villagehq/village/internal/testutil"
)

func TestCreateGeneratesID(t *testing.T) {
	db := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	chats := chatstore.New(db)

	created, err := chats.Create(ctx, models.GroupChat{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create did not assign an ID")
	}

	got, err := chats.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Rev != created.Rev {
		t.Errorf("GetByID rev = %q, want %q", got.Rev, created.Rev)
	}
}

func TestCreateWithExistingIDReturnsExisting(t *testing.T) {
	db := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	chats := chatstore.New(db)

	first, err := chats.Create(ctx, models.GroupChat{ID: "c1"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := chats.Create(ctx, models.GroupChat{ID: "c1"})
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if second.Rev != first.Rev {
		t.Errorf("second Create rev = %q, want unchanged %q", second.Rev, first.Rev)
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	chats := chatstore.New(db)

	created, err := chats.Create(ctx, models.GroupChat{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := chats.Delete(ctx, created); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := chats.GetByID(ctx, created.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("GetByID after Delete = %v, want ErrNotFound", err)
	}
	if err := chats.Delete(ctx, created); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}
