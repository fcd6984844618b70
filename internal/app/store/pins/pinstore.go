// internal/app/store/pins/pinstore.go
package pinstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	attendeestore "github.com/villagehq/village/internal/app/store/attendees"
	"github.com/villagehq/village/internal/app/store/docstore"
	"github.com/villagehq/village/internal/domain/models"
)

// Tag is the key namespace for pin documents: "pin:{pinID}" with
// pinID = "{startMillis}_{uuid}". The fixed-width millisecond prefix makes
// the namespace time-ordered, which every upcoming/expiry query relies on.
const Tag = "pin"

type Store struct {
	db        *docstore.Store
	attendees *attendeestore.Store
}

func New(db *docstore.Store, attendees *attendeestore.Store) *Store {
	return &Store{db: db, attendees: attendees}
}

var (
	errMissingHost  = errors.New("pin host ID is required")
	errMissingStart = errors.New("pin start time is required")
)

// NewID derives a pin ID from its start time. The numeric prefix must equal
// the start time truncated to milliseconds for every pin ever written.
func NewID(startMillis int64) string {
	return docstore.TimePart(startMillis) + "_" + uuid.NewString()
}

// StartMillisFromID recovers the encoded start time from a pin ID.
func StartMillisFromID(id string) (int64, error) {
	part, _, ok := strings.Cut(id, "_")
	if !ok {
		return 0, fmt.Errorf("pin id %q: missing time prefix", id)
	}
	return docstore.ParseTimePart(part)
}

// Create inserts a new pin. The ID is derived from StartTime; Active
// defaults to true. Creating twice with the same derived ID cannot happen
// (the uuid suffix), so there is no duplicate path here.
func (s *Store) Create(ctx context.Context, p models.Pin) (models.Pin, error) {
	if p.HostID == "" {
		return models.Pin{}, errMissingHost
	}
	if p.StartTime <= 0 {
		return models.Pin{}, errMissingStart
	}

	p.ID = NewID(p.StartTime)
	p.Active = true
	p.Rev = ""

	doc, err := docstore.Marshal(docstore.Key(Tag, p.ID), "", p)
	if err != nil {
		return models.Pin{}, err
	}
	doc, err = s.db.Put(ctx, doc)
	if err != nil {
		return models.Pin{}, err
	}
	p.Rev = doc.Rev
	return p, nil
}

// GetByID loads a pin by ID. Returns docstore.ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Pin, error) {
	doc, err := s.db.Get(ctx, docstore.Key(Tag, id))
	if err != nil {
		return nil, err
	}
	p, err := decodePin(doc)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetUpcoming returns pins with StartTime in [now, now+horizon), ascending.
// The upper bound keeps the result to upcoming events instead of scanning
// the unbounded tail of the namespace.
func (s *Store) GetUpcoming(ctx context.Context, now time.Time, horizon time.Duration) ([]models.Pin, error) {
	return s.scanWindow(ctx, now.UnixMilli(), now.Add(horizon).UnixMilli())
}

// GetStartedSince returns pins with StartTime in [cutoff, now), ascending.
func (s *Store) GetStartedSince(ctx context.Context, cutoff, now time.Time) ([]models.Pin, error) {
	return s.scanWindow(ctx, cutoff.UnixMilli(), now.UnixMilli())
}

// GetStartedBefore returns every pin with StartTime before now, ascending.
// The expiry scanner walks this instead of a bounded lookback window so that
// a pin of any age is still found while its active flag is set.
func (s *Store) GetStartedBefore(ctx context.Context, now time.Time) ([]models.Pin, error) {
	return s.scanWindow(ctx, 0, now.UnixMilli())
}

func (s *Store) scanWindow(ctx context.Context, lowMillis, highMillis int64) ([]models.Pin, error) {
	low := Tag + docstore.Separator + docstore.TimePart(lowMillis)
	high := Tag + docstore.Separator + docstore.TimePart(highMillis)
	docs, err := s.db.Scan(ctx, low, high)
	if err != nil {
		return nil, err
	}
	pins := make([]models.Pin, 0, len(docs))
	for _, doc := range docs {
		p, err := decodePin(doc)
		if err != nil {
			return nil, err
		}
		pins = append(pins, p)
	}
	return pins, nil
}

// Update rewrites the full pin document; Rev must be current or the write
// fails with docstore.ErrConflict.
func (s *Store) Update(ctx context.Context, p models.Pin) (models.Pin, error) {
	doc, err := docstore.Marshal(docstore.Key(Tag, p.ID), p.Rev, p)
	if err != nil {
		return models.Pin{}, err
	}
	doc, err = s.db.Put(ctx, doc)
	if err != nil {
		return models.Pin{}, err
	}
	p.Rev = doc.Rev
	return p, nil
}

// Delete removes a pin and cascades to its attendee documents first. The
// attendee removals are each idempotent, so a partially failed delete can
// simply be retried. Re-deleting an already-deleted pin returns
// docstore.ErrNotFound.
func (s *Store) Delete(ctx context.Context, p models.Pin) error {
	if err := s.attendees.RemoveAllForPin(ctx, p.ID); err != nil {
		return fmt.Errorf("cascading attendees of pin %s: %w", p.ID, err)
	}
	return s.db.Remove(ctx, docstore.Document{Key: docstore.Key(Tag, p.ID), Rev: p.Rev})
}

func decodePin(doc docstore.Document) (models.Pin, error) {
	var p models.Pin
	if err := docstore.Unmarshal(doc, &p); err != nil {
		return models.Pin{}, err
	}
	p.Rev = doc.Rev
	return p, nil
}
