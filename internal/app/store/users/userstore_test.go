// internal/app/store/users/userstore_test.go
package userstore_test

import (
	"errors"
	"testing"

	"github.com/villagehq/village/internal/app/store/docstore"
	userstore "github.com/villagehq/village/internal/app/store/users"
	"github.com/villagehq/village/internal/domain/models"
	"github.com/villagehq/village/internal/testutil"
)

func TestCreateAndGetByID(t *testing.T) {
	db := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users := userstore.New(db)

	created, err := users.Create(ctx, models.User{
		Name:     "  Ada Lovelace  ",
		Username: "Ada",
		Email:    "  Ada@Example.COM ",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Error("Create did not assign an ID")
	}
	if created.Rev == "" {
		t.Error("Create did not record a revision")
	}
	if created.Name != "Ada Lovelace" {
		t.Errorf("Name = %q, want trimmed %q", created.Name, "Ada Lovelace")
	}
	if created.Email != "ada@example.com" {
		t.Errorf("Email = %q, want folded %q", created.Email, "ada@example.com")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("Create did not set timestamps")
	}

	got, err := users.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Email != created.Email || got.Rev != created.Rev {
		t.Errorf("GetByID = %+v, want %+v", got, created)
	}
}

func TestCreateValidation(t *testing.T) {
	db := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users := userstore.New(db)

	tests := []struct {
		name string
		user models.User
	}{
		{"missing name", models.User{Email: "a@b.com"}},
		{"blank name", models.User{Name: "   ", Email: "a@b.com"}},
		{"missing email", models.User{Name: "Ada"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := users.Create(ctx, tc.user); err == nil {
				t.Errorf("Create(%+v) succeeded, want validation error", tc.user)
			}
		})
	}
}

func TestCreateDuplicateEmailReturnsExisting(t *testing.T) {
	db := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users := userstore.New(db)

	first, err := users.Create(ctx, models.User{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	// Same email with different casing must resolve to the same record.
	second, err := users.Create(ctx, models.User{Name: "Someone Else", Email: "ADA@Example.com"})
	if err != nil {
		t.Fatalf("duplicate Create failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("duplicate Create ID = %q, want existing %q", second.ID, first.ID)
	}
	if second.Name != "Ada" {
		t.Errorf("duplicate Create returned name %q, want existing record unchanged", second.Name)
	}

	all, err := users.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("GetAll returned %d users, want 1", len(all))
	}
}

func TestGetByEmail(t *testing.T) {
	db := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users := userstore.New(db)

	created, err := users.Create(ctx, models.User{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := users.GetByEmail(ctx, "ADA@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail ID = %q, want %q", got.ID, created.ID)
	}

	if _, err := users.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("GetByEmail for unknown address = %v, want ErrNotFound", err)
	}
}

func TestUpdateRejectsStaleRevision(t *testing.T) {
	db := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users := userstore.New(db)

	created, err := users.Create(ctx, models.User{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	created.Bio = "mathematician"
	updated, err := users.Update(ctx, created)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Rev == created.Rev {
		t.Error("Update did not advance the revision")
	}

	// The first write's revision is now stale.
	created.Bio = "lost update"
	if _, err := users.Update(ctx, created); !errors.Is(err, docstore.ErrConflict) {
		t.Errorf("Update with stale rev = %v, want ErrConflict", err)
	}

	got, err := users.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Bio != "mathematician" {
		t.Errorf("Bio = %q, stale write must not land", got.Bio)
	}
}
