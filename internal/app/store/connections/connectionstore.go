// internal/app/store/connections/connectionstore.go
package connectionstore

import (
	"context"
	"errors"

	"github.com/villagehq/village/internal/app/store/docstore"
	"github.com/villagehq/village/internal/domain/models"
)

// Key namespaces. Connections and suggestions are directed edges keyed
// "tag:{userID}:{targetID}", so "everything for a user" is a prefix scan
// and a bidirectional relationship is two documents.
const (
	Tag           = "conn"
	SuggestionTag = "suggest"
)

type Store struct {
	db *docstore.Store
}

func New(db *docstore.Store) *Store {
	return &Store{db: db}
}

var errSelfEdge = errors.New("connection endpoints must differ")

// Add creates the directed connection from user to target. Creating one that
// already exists returns the existing document unchanged.
func (s *Store) Add(ctx context.Context, userID, targetID string) (models.VillageConnection, error) {
	if userID == targetID {
		return models.VillageConnection{}, errSelfEdge
	}
	key := docstore.Key(Tag, userID, targetID)
	doc, err := s.ensure(ctx, key, models.VillageConnection{UserID: userID, TargetID: targetID})
	if err != nil {
		return models.VillageConnection{}, err
	}
	var c models.VillageConnection
	if err := docstore.Unmarshal(doc, &c); err != nil {
		return models.VillageConnection{}, err
	}
	c.Rev = doc.Rev
	return c, nil
}

// ListForUser returns every outgoing connection of a user, ordered by
// target ID.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]models.VillageConnection, error) {
	low, high := docstore.PrefixRange(Tag, userID)
	docs, err := s.db.Scan(ctx, low, high)
	if err != nil {
		return nil, err
	}
	out := make([]models.VillageConnection, 0, len(docs))
	for _, doc := range docs {
		var c models.VillageConnection
		if err := docstore.Unmarshal(doc, &c); err != nil {
			return nil, err
		}
		c.Rev = doc.Rev
		out = append(out, c)
	}
	return out, nil
}

// Remove deletes the directed connection from user to target. Removing the
// reverse edge is a separate call.
func (s *Store) Remove(ctx context.Context, c models.VillageConnection) error {
	return s.db.Remove(ctx, docstore.Document{
		Key: docstore.Key(Tag, c.UserID, c.TargetID),
		Rev: c.Rev,
	})
}

// Suggest creates the directed suggestion from user to target, idempotently.
// Suggestions are one-directional: the generating side decides which
// direction exists.
func (s *Store) Suggest(ctx context.Context, userID, targetID string) (models.ConnectionSuggestion, error) {
	if userID == targetID {
		return models.ConnectionSuggestion{}, errSelfEdge
	}
	key := docstore.Key(SuggestionTag, userID, targetID)
	doc, err := s.ensure(ctx, key, models.ConnectionSuggestion{UserID: userID, TargetID: targetID})
	if err != nil {
		return models.ConnectionSuggestion{}, err
	}
	var sg models.ConnectionSuggestion
	if err := docstore.Unmarshal(doc, &sg); err != nil {
		return models.ConnectionSuggestion{}, err
	}
	sg.Rev = doc.Rev
	return sg, nil
}

// ListSuggestionsForUser returns every suggestion held by a user, ordered
// by target ID.
func (s *Store) ListSuggestionsForUser(ctx context.Context, userID string) ([]models.ConnectionSuggestion, error) {
	low, high := docstore.PrefixRange(SuggestionTag, userID)
	docs, err := s.db.Scan(ctx, low, high)
	if err != nil {
		return nil, err
	}
	out := make([]models.ConnectionSuggestion, 0, len(docs))
	for _, doc := range docs {
		var sg models.ConnectionSuggestion
		if err := docstore.Unmarshal(doc, &sg); err != nil {
			return nil, err
		}
		sg.Rev = doc.Rev
		out = append(out, sg)
	}
	return out, nil
}

// RemoveSuggestion deletes one suggestion (typically after the user acts on
// it, in either direction).
func (s *Store) RemoveSuggestion(ctx context.Context, sg models.ConnectionSuggestion) error {
	return s.db.Remove(ctx, docstore.Document{
		Key: docstore.Key(SuggestionTag, sg.UserID, sg.TargetID),
		Rev: sg.Rev,
	})
}

// ensure returns the document at key, creating it from v if absent. A lost
// creation race resolves by reading the winner's document.
func (s *Store) ensure(ctx context.Context, key string, v any) (docstore.Document, error) {
	existing, err := s.db.Get(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return docstore.Document{}, err
	}

	doc, err := docstore.Marshal(key, "", v)
	if err != nil {
		return docstore.Document{}, err
	}
	doc, err = s.db.Put(ctx, doc)
	if errors.Is(err, docstore.ErrConflict) {
		cur, getErr := s.db.Get(ctx, key)
		if getErr == nil {
			return cur, nil
		}
		return docstore.Document{}, err
	}
	if err != nil {
		return docstore.Document{}, err
	}
	return doc, nil
}
