// internal/app/store/chatmembers/memberstore.go
package chatmemberstore

import (
	"context"
	"errors"

	"github.com/villagehq/village/internal/app/store/docstore"
	"github.com/villagehq/village/internal/domain/models"
)

// Tag is the key namespace for membership documents:
// "chatmember:{chatID}:{userID}".
const Tag = "chatmember"

type Store struct {
	db *docstore.Store
}

func New(db *docstore.Store) *Store {
	return &Store{db: db}
}

// Add records that a user belongs to a chat. Adding an existing member
// returns the existing document unchanged.
func (s *Store) Add(ctx context.Context, chatID, userID string) (models.GroupChatMember, error) {
	key := docstore.Key(Tag, chatID, userID)

	existing, err := s.db.Get(ctx, key)
	if err == nil {
		return decodeMember(existing)
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return models.GroupChatMember{}, err
	}

	m := models.GroupChatMember{GroupChatID: chatID, UserID: userID}
	doc, err := docstore.Marshal(key, "", m)
	if err != nil {
		return models.GroupChatMember{}, err
	}
	doc, err = s.db.Put(ctx, doc)
	if errors.Is(err, docstore.ErrConflict) {
		if cur, getErr := s.db.Get(ctx, key); getErr == nil {
			return decodeMember(cur)
		}
		return models.GroupChatMember{}, err
	}
	if err != nil {
		return models.GroupChatMember{}, err
	}
	m.Rev = doc.Rev
	return m, nil
}

// ListForChat returns every member of a chat, ordered by user ID.
func (s *Store) ListForChat(ctx context.Context, chatID string) ([]models.GroupChatMember, error) {
	low, high := docstore.PrefixRange(Tag, chatID)
	docs, err := s.db.Scan(ctx, low, high)
	if err != nil {
		return nil, err
	}
	out := make([]models.GroupChatMember, 0, len(docs))
	for _, doc := range docs {
		m, err := decodeMember(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ListChatsForUser returns the chat IDs a user belongs to.
//
// The user is the second key component, so this is a full-namespace scan
// with client-side filtering, the same trade the email lookup makes. A
// reverse "userchat" key would avoid it and is deliberately not kept.
func (s *Store) ListChatsForUser(ctx context.Context, userID string) ([]string, error) {
	low, high := docstore.PrefixRange(Tag)
	docs, err := s.db.Scan(ctx, low, high)
	if err != nil {
		return nil, err
	}
	var chats []string
	for _, doc := range docs {
		m, err := decodeMember(doc)
		if err != nil {
			return nil, err
		}
		if m.UserID == userID {
			chats = append(chats, m.GroupChatID)
		}
	}
	return chats, nil
}

// Remove deletes one membership. Returns docstore.ErrNotFound when already
// gone.
func (s *Store) Remove(ctx context.Context, m models.GroupChatMember) error {
	return s.db.Remove(ctx, docstore.Document{
		Key: docstore.Key(Tag, m.GroupChatID, m.UserID),
		Rev: m.Rev,
	})
}

func decodeMember(doc docstore.Document) (models.GroupChatMember, error) {
	var m models.GroupChatMember
	if err := docstore.Unmarshal(doc, &m); err != nil {
		return models.GroupChatMember{}, err
	}
	m.Rev = doc.Rev
	return m, nil
}
