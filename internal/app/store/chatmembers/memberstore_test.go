// internal/app/store/chatmembers/memberstore_test.go
package chatmemberstore_test

import (
	"errors"
	"testing"

	chatmemberstore "github.com/villagehq/village/internal/app/store/chatmembers"
	"github.com/villagehq/village/internal/app/store/docstore"
	"github.com/villagehq/village/internal/testutil"
)

func TestAddIsIdempotent(t *testing.T) {
	db := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	members := chatmemberstore.New(db)

	first, err := members.Add(ctx, "c1", "alice")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	second, err := members.Add(ctx, "c1", "alice")
	if err != nil {
		t.Fatalf("second Add failed: %v", err)
	}
	if second.Rev != first.Rev {
		t.Errorf("second Add rev = %q, want unchanged %q", second.Rev, first.Rev)
	}
}

func TestListForChat(t *testing.T) {
	db := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	members := chatmemberstore.New(db)

	for _, pair := range [][2]string{
		{"c1", "bob"}, {"c1", "alice"}, {"c2", "alice"},
	} {
		if _, err := members.Add(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("Add(%q, %q) failed: %v", pair[0], pair[1], err)
		}
	}

	list, err := members.ListForChat(ctx, "c1")
	if err != nil {
		t.Fatalf("ListForChat failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListForChat returned %d members, want 2", len(list))
	}
	if list[0].UserID != "alice" || list[1].UserID != "bob" {
		t.Errorf("ListForChat order = [%q, %q], want [alice, bob]", list[0].UserID, list[1].UserID)
	}
}

func TestListChatsForUser(t *testing.T) {
	db := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	members := chatmemberstore.New(db)

	for _, pair := range [][2]string{
		{"c1", "alice"}, {"c2", "alice"}, {"c2", "bob"}, {"c3", "bob"},
	} {
		if _, err := members.Add(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	chats, err := members.ListChatsForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListChatsForUser failed: %v", err)
	}
	if len(chats) != 2 || chats[0] != "c1" || chats[1] != "c2" {
		t.Errorf("ListChatsForUser = %v, want [c1 c2]", chats)
	}

	none, err := members.ListChatsForUser(ctx, "carol")
	if err != nil {
		t.Fatalf("ListChatsForUser failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListChatsForUser for non-member = %v, want empty", none)
	}
}

func TestRemove(t *testing.T) {
	db := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	members := chatmemberstore.New(db)

	m, err := members.Add(ctx, "c1", "alice")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := members.Remove(ctx, m); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := members.Remove(ctx, m); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("second Remove = %v, want ErrNotFound", err)
	}
}
