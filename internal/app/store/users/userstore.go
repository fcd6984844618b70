// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/villagehq/village/internal/app/store/docstore"
	"github.com/villagehq/village/internal/app/system/normalize"
	"github.com/villagehq/village/internal/domain/models"
)

// Tag is the key namespace for user documents: "user:{userID}".
const Tag = "user"

type Store struct {
	db *docstore.Store
}

func New(db *docstore.Store) *Store {
	return &Store{db: db}
}

var (
	errMissingName  = errors.New("user name is required")
	errMissingEmail = errors.New("user email is required")
)

// Create inserts a new user after normalizing fields. If a user with the
// same email already exists, the existing record is returned unchanged;
// duplicate-by-email is not an error.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.Name = normalize.Name(u.Name)
	u.Username = normalize.Username(u.Username)
	u.Email = normalize.Email(u.Email)
	if u.Name == "" {
		return models.User{}, errMissingName
	}
	if u.Email == "" {
		return models.User{}, errMissingEmail
	}

	existing, err := s.GetByEmail(ctx, u.Email)
	if err == nil {
		return *existing, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return models.User{}, err
	}

	u.ID = uuid.NewString()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.Rev = ""

	doc, err := docstore.Marshal(docstore.Key(Tag, u.ID), "", u)
	if err != nil {
		return models.User{}, err
	}
	doc, err = s.db.Put(ctx, doc)
	if err != nil {
		return models.User{}, err
	}
	u.Rev = doc.Rev
	return u, nil
}

// GetByID loads a user by ID. Returns docstore.ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	doc, err := s.db.Get(ctx, docstore.Key(Tag, id))
	if err != nil {
		return nil, err
	}
	u, err := decodeUser(doc)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
//
// Email is not embedded in the user key, so this is a full-namespace scan
// with client-side filtering. That is the cost of emulating secondary
// indexes with key prefixes; a denormalized email key would fix it and is
// not used here.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	want := normalize.Email(email)
	low, high := docstore.PrefixRange(Tag)
	docs, err := s.db.Scan(ctx, low, high)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		u, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		if u.Email == want {
			return &u, nil
		}
	}
	return nil, docstore.ErrNotFound
}

// GetAll returns every user, ordered by ID.
func (s *Store) GetAll(ctx context.Context) ([]models.User, error) {
	low, high := docstore.PrefixRange(Tag)
	docs, err := s.db.Scan(ctx, low, high)
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		u, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// Update rewrites the full user document. The user's Rev must be the
// current stored revision; a stale Rev fails with docstore.ErrConflict and
// the caller retries with a fresh read.
func (s *Store) Update(ctx context.Context, u models.User) (models.User, error) {
	u.Name = normalize.Name(u.Name)
	u.Username = normalize.Username(u.Username)
	u.Email = normalize.Email(u.Email)
	u.UpdatedAt = time.Now().UTC()

	doc, err := docstore.Marshal(docstore.Key(Tag, u.ID), u.Rev, u)
	if err != nil {
		return models.User{}, err
	}
	doc, err = s.db.Put(ctx, doc)
	if err != nil {
		return models.User{}, err
	}
	u.Rev = doc.Rev
	return u, nil
}

func decodeUser(doc docstore.Document) (models.User, error) {
	var u models.User
	if err := docstore.Unmarshal(doc, &u); err != nil {
		return models.User{}, err
	}
	u.Rev = doc.Rev
	return u, nil
}
