// internal/app/store/groupchats/chatstore.go
package chatstore

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/villagehq/village/internal/app/store/docstore"
	"github.com/villagehq/village/internal/domain/models"
)

// Tag is the key namespace for group-chat documents: "chat:{chatID}".
const Tag = "chat"

type Store struct {
	db *docstore.Store
}

func New(db *docstore.Store) *Store {
	return &Store{db: db}
}

// Create inserts a chat. With an empty ID a fresh one is generated; with a
// caller-supplied ID an existing chat is returned unchanged rather than
// duplicated.
func (s *Store) Create(ctx context.Context, c models.GroupChat) (models.GroupChat, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	} else {
		existing, err := s.GetByID(ctx, c.ID)
		if err == nil {
			return *existing, nil
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return models.GroupChat{}, err
		}
	}

	c.Rev = ""
	doc, err := docstore.Marshal(docstore.Key(Tag, c.ID), "", c)
	if err != nil {
		return models.GroupChat{}, err
	}
	doc, err = s.db.Put(ctx, doc)
	if err != nil {
		return models.GroupChat{}, err
	}
	c.Rev = doc.Rev
	return c, nil
}

// GetByID loads a chat by ID. Returns docstore.ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*models.GroupChat, error) {
	doc, err := s.db.Get(ctx, docstore.Key(Tag, id))
	if err != nil {
		return nil, err
	}
	var c models.GroupChat
	if err := docstore.Unmarshal(doc, &c); err != nil {
		return nil, err
	}
	c.Rev = doc.Rev
	return &c, nil
}

// Delete removes the chat document itself. Members and messages live in
// their own namespaces and are removed by their own stores.
func (s *Store) Delete(ctx context.Context, c models.GroupChat) error {
	return s.db.Remove(ctx, docstore.Document{Key: docstore.Key(Tag, c.ID), Rev: c.Rev})
}
