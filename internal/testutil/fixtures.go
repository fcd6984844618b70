// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	attendeestore "github.com/villagehq/village/internal/app/store/attendees"
	connectionstore "github.com/villagehq/village/internal/app/store/connections"
	"github.com/villagehq/village/internal/app/store/docstore"
	pinstore "github.com/villagehq/village/internal/app/store/pins"
	userstore "github.com/villagehq/village/internal/app/store/users"
	"github.com/villagehq/village/internal/domain/models"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *docstore.Store
	t  *testing.T

	users       *userstore.Store
	pins        *pinstore.Store
	attendees   *attendeestore.Store
	connections *connectionstore.Store
}

// NewFixtures creates a Fixtures instance for the given test store.
func NewFixtures(t *testing.T, db *docstore.Store) *Fixtures {
	t.Helper()
	attendees := attendeestore.New(db)
	return &Fixtures{
		db:          db,
		t:           t,
		users:       userstore.New(db),
		pins:        pinstore.New(db, attendees),
		attendees:   attendees,
		connections: connectionstore.New(db),
	}
}

// DB returns the underlying store for direct access in tests.
func (f *Fixtures) DB() *docstore.Store {
	return f.db
}

// CreateUser creates a test user with the given name and email.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	u, err := f.users.Create(ctx, models.User{
		Name:     name,
		Username: name,
		Email:    email,
	})
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreatePin creates a test pin hosted by hostID starting at start.
func (f *Fixtures) CreatePin(ctx context.Context, hostID string, start time.Time) models.Pin {
	f.t.Helper()

	p, err := f.pins.Create(ctx, models.Pin{
		HostID:    hostID,
		StartTime: start.UnixMilli(),
		EndTime:   start.Add(2 * time.Hour).UnixMilli(),
		Details:   "test pin",
		Coords:    models.Coords{Lat: 38.95, Lng: -92.33},
	})
	if err != nil {
		f.t.Fatalf("failed to create test pin: %v", err)
	}
	return p
}

// AddAttendee records userID as attending pinID.
func (f *Fixtures) AddAttendee(ctx context.Context, pinID, userID string) models.PinAttendee {
	f.t.Helper()

	a, err := f.attendees.Add(ctx, pinID, userID)
	if err != nil {
		f.t.Fatalf("failed to add test attendee: %v", err)
	}
	return a
}

// Connect creates the directed connection from userID to targetID.
func (f *Fixtures) Connect(ctx context.Context, userID, targetID string) models.VillageConnection {
	f.t.Helper()

	c, err := f.connections.Add(ctx, userID, targetID)
	if err != nil {
		f.t.Fatalf("failed to create test connection: %v", err)
	}
	return c
}
