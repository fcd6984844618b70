// internal/app/store/chatmessages/messagestore.go
package chatmessagestore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/villagehq/village/internal/app/store/docstore"
	"github.com/villagehq/village/internal/domain/models"
)

// Tag is the key namespace for message documents:
// "chatmsg:{chatID}:{messageID}" with messageID = "{millis}_{uuid}", so a
// chat's messages scan out in send order.
const Tag = "chatmsg"

type Store struct {
	db *docstore.Store
}

func New(db *docstore.Store) *Store {
	return &Store{db: db}
}

var (
	errMissingChat   = errors.New("message chat ID is required")
	errMissingSender = errors.New("message sender ID is required")
)

// Append stores a new message in a chat. The message ID and Time are
// assigned here; the uuid suffix keeps same-millisecond messages distinct.
func (s *Store) Append(ctx context.Context, m models.GroupChatMessage) (models.GroupChatMessage, error) {
	if m.GroupChatID == "" {
		return models.GroupChatMessage{}, errMissingChat
	}
	if m.UserID == "" {
		return models.GroupChatMessage{}, errMissingSender
	}

	if m.Time == 0 {
		m.Time = time.Now().UnixMilli()
	}
	m.ID = docstore.TimePart(m.Time) + "_" + uuid.NewString()
	m.Rev = ""

	doc, err := docstore.Marshal(docstore.Key(Tag, m.GroupChatID, m.ID), "", m)
	if err != nil {
		return models.GroupChatMessage{}, err
	}
	doc, err = s.db.Put(ctx, doc)
	if err != nil {
		return models.GroupChatMessage{}, err
	}
	m.Rev = doc.Rev
	return m, nil
}

// ListForChat returns every message of a chat in ascending send order.
func (s *Store) ListForChat(ctx context.Context, chatID string) ([]models.GroupChatMessage, error) {
	low, high := docstore.PrefixRange(Tag, chatID)
	return s.scan(ctx, low, high)
}

// ListForChatSince returns a chat's messages with Time >= since, ascending.
// Callers refreshing a conversation pass their last-seen timestamp instead
// of re-reading the whole history.
func (s *Store) ListForChatSince(ctx context.Context, chatID string, since time.Time) ([]models.GroupChatMessage, error) {
	low := docstore.Key(Tag, chatID, docstore.TimePart(since.UnixMilli()))
	_, high := docstore.PrefixRange(Tag, chatID)
	return s.scan(ctx, low, high)
}

func (s *Store) scan(ctx context.Context, low, high string) ([]models.GroupChatMessage, error) {
	docs, err := s.db.Scan(ctx, low, high)
	if err != nil {
		return nil, err
	}
	out := make([]models.GroupChatMessage, 0, len(docs))
	for _, doc := range docs {
		var m models.GroupChatMessage
		if err := docstore.Unmarshal(doc, &m); err != nil {
			return nil, err
		}
		m.Rev = doc.Rev
		out = append(out, m)
	}
	return out, nil
}
