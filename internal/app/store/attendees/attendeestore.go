// internal/app/store/attendees/attendeestore.go
package attendeestore

import (
	"context"
	"errors"

	"github.com/villagehq/village/internal/app/store/docstore"
	"github.com/villagehq/village/internal/domain/models"
)

// Tag is the key namespace for attendee documents:
// "attendee:{pinID}:{userID}". Embedding the pin ID first makes
// "all attendees of a pin" a prefix scan.
const Tag = "attendee"

type Store struct {
	db *docstore.Store
}

func New(db *docstore.Store) *Store {
	return &Store{db: db}
}

// Add records that a user attends a pin. Creating an attendee that already
// exists returns the existing document unchanged; the operation is
// idempotent by composite identity. AttendeeCount on the pin is the
// caller's to maintain.
func (s *Store) Add(ctx context.Context, pinID, userID string) (models.PinAttendee, error) {
	key := docstore.Key(Tag, pinID, userID)

	existing, err := s.db.Get(ctx, key)
	if err == nil {
		return decodeAttendee(existing)
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return models.PinAttendee{}, err
	}

	a := models.PinAttendee{PinID: pinID, UserID: userID}
	doc, err := docstore.Marshal(key, "", a)
	if err != nil {
		return models.PinAttendee{}, err
	}
	doc, err = s.db.Put(ctx, doc)
	if errors.Is(err, docstore.ErrConflict) {
		// Lost a race with another writer creating the same attendee;
		// the stored document is the one we wanted.
		if cur, getErr := s.db.Get(ctx, key); getErr == nil {
			return decodeAttendee(cur)
		}
		return models.PinAttendee{}, err
	}
	if err != nil {
		return models.PinAttendee{}, err
	}
	a.Rev = doc.Rev
	return a, nil
}

// Get loads one attendee record. Returns docstore.ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, pinID, userID string) (*models.PinAttendee, error) {
	doc, err := s.db.Get(ctx, docstore.Key(Tag, pinID, userID))
	if err != nil {
		return nil, err
	}
	a, err := decodeAttendee(doc)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListForPin returns every attendee of a pin, ordered by user ID.
func (s *Store) ListForPin(ctx context.Context, pinID string) ([]models.PinAttendee, error) {
	low, high := docstore.PrefixRange(Tag, pinID)
	docs, err := s.db.Scan(ctx, low, high)
	if err != nil {
		return nil, err
	}
	out := make([]models.PinAttendee, 0, len(docs))
	for _, doc := range docs {
		a, err := decodeAttendee(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Remove deletes one attendee record. Returns docstore.ErrNotFound when the
// record is already gone.
func (s *Store) Remove(ctx context.Context, a models.PinAttendee) error {
	return s.db.Remove(ctx, docstore.Document{
		Key: docstore.Key(Tag, a.PinID, a.UserID),
		Rev: a.Rev,
	})
}

// RemoveAllForPin deletes every attendee of a pin. Each removal is
// independent and idempotent; if one fails the rest are still attempted and
// the first error is returned, so a retry is always safe.
func (s *Store) RemoveAllForPin(ctx context.Context, pinID string) error {
	list, err := s.ListForPin(ctx, pinID)
	if err != nil {
		return err
	}
	var firstErr error
	for _, a := range list {
		if err := s.Remove(ctx, a); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func decodeAttendee(doc docstore.Document) (models.PinAttendee, error) {
	var a models.PinAttendee
	if err := docstore.Unmarshal(doc, &a); err != nil {
		return models.PinAttendee{}, err
	}
	a.Rev = doc.Rev
	return a, nil
}
