// internal/app/store/docstore/docstore.go
package docstore

// The docstore is the only component that talks to the underlying key-value
// store. It exposes a flat namespace of revisioned JSON documents: point
// get/put/remove with optimistic-concurrency revision checks, ordered range
// scans between two keys, and a live mutation feed (see feed.go).

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dgraph-io/badger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Document is a stored record: a composite key, an opaque revision token
// that changes on every successful write, and the JSON body.
type Document struct {
	Key  string
	Rev  string
	Body json.RawMessage
}

// envelope is the persisted value layout. The field names are part of the
// on-disk contract; two implementations interoperating over the same store
// must reproduce them exactly.
type envelope struct {
	Rev  string          `json:"rev"`
	Body json.RawMessage `json:"body"`
}

// Store is a facade over a single badger keyspace. It is safe for concurrent
// use by all repositories and background workers in the process.
type Store struct {
	db  *badger.DB
	log *zap.Logger

	// mu guards subs and closed, and is held across commit+publish so the
	// feed observes mutations in commit order.
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// Open opens (creating if needed) the store at dir.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening document store at %q: %w", dir, err)
	}
	return &Store{
		db:   db,
		log:  logger,
		subs: make(map[*Subscription]struct{}),
	}, nil
}

// Close cancels all feed subscriptions and closes the backing store.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for sub := range s.subs {
		sub.drop()
	}
	s.subs = nil
	s.mu.Unlock()
	return s.db.Close()
}

// Get loads the document at key. Returns ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, key string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	var doc Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		doc, err = decode(key, val)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return Document{}, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %q: %w: %v", key, ErrUnavailable, err)
	}
	return doc, nil
}

// Put writes doc at doc.Key. A document with an empty Rev must not already
// exist; a non-empty Rev must match the stored revision. On success the
// returned document carries the newly assigned revision.
func (s *Store) Put(ctx context.Context, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Document{}, fmt.Errorf("put %q: %w", doc.Key, ErrUnavailable)
	}

	next := doc
	err := s.db.Update(func(txn *badger.Txn) error {
		cur, err := currentRev(txn, doc.Key)
		if err != nil {
			return err
		}
		if cur != doc.Rev {
			return ErrConflict
		}
		next.Rev = nextRev(cur)
		val, err := json.Marshal(envelope{Rev: next.Rev, Body: doc.Body})
		if err != nil {
			return err
		}
		return txn.Set([]byte(doc.Key), val)
	})
	switch {
	case err == nil:
	case err == ErrConflict || err == badger.ErrConflict:
		return Document{}, fmt.Errorf("put %q: %w", doc.Key, ErrConflict)
	default:
		return Document{}, fmt.Errorf("put %q: %w: %v", doc.Key, ErrUnavailable, err)
	}

	s.publish(ChangeEvent{Key: next.Key, Rev: next.Rev, Body: next.Body})
	return next, nil
}

// Remove deletes the document identified by doc.Key, requiring doc.Rev (when
// non-empty) to match the stored revision. Returns ErrNotFound when no
// document exists, so re-deleting is a detectable no-op.
func (s *Store) Remove(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("remove %q: %w", doc.Key, ErrUnavailable)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		cur, err := currentRev(txn, doc.Key)
		if err != nil {
			return err
		}
		if cur == "" {
			return ErrNotFound
		}
		if doc.Rev != "" && doc.Rev != cur {
			return ErrConflict
		}
		return txn.Delete([]byte(doc.Key))
	})
	switch {
	case err == nil:
	case err == ErrNotFound:
		return fmt.Errorf("remove %q: %w", doc.Key, ErrNotFound)
	case err == ErrConflict || err == badger.ErrConflict:
		return fmt.Errorf("remove %q: %w", doc.Key, ErrConflict)
	default:
		return fmt.Errorf("remove %q: %w: %v", doc.Key, ErrUnavailable, err)
	}

	s.publish(ChangeEvent{Key: doc.Key, Deleted: true})
	return nil
}

// Scan returns every document whose key falls in [low, high), ordered by
// key. An empty result is a valid outcome, not an error. The scan either
// succeeds as a whole or fails; there is no partial result.
func (s *Store) Scan(ctx context.Context, low, high string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var docs []Document
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 100
		it := txn.NewIterator(opts)
		defer it.Close()

		hi := []byte(high)
		for it.Seek([]byte(low)); it.Valid(); it.Next() {
			item := it.Item()
			if bytes.Compare(item.Key(), hi) >= 0 {
				break
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			doc, err := decode(string(item.KeyCopy(nil)), val)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan [%q, %q): %w: %v", low, high, ErrUnavailable, err)
	}
	return docs, nil
}

// Marshal encodes v as the body of a document at key with revision rev.
func Marshal(key, rev string, v any) (Document, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("encoding document %q: %w", key, err)
	}
	return Document{Key: key, Rev: rev, Body: body}, nil
}

// Unmarshal decodes a document body into v.
func Unmarshal(doc Document, v any) error {
	if err := json.Unmarshal(doc.Body, v); err != nil {
		return fmt.Errorf("decoding document %q: %w", doc.Key, err)
	}
	return nil
}

func currentRev(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	var env envelope
	if err := json.Unmarshal(val, &env); err != nil {
		return "", err
	}
	return env.Rev, nil
}

// nextRev produces a "{generation}-{uuid}" token. Generations are advisory;
// only equality of the whole token matters for conflict checks.
func nextRev(prev string) string {
	gen := 1
	if prev != "" {
		if g, _, ok := strings.Cut(prev, "-"); ok {
			if n, err := strconv.Atoi(g); err == nil {
				gen = n + 1
			}
		}
	}
	return fmt.Sprintf("%d-%s", gen, uuid.NewString())
}

func decode(key string, val []byte) (Document, error) {
	var env envelope
	if err := json.Unmarshal(val, &env); err != nil {
		return Document{}, fmt.Errorf("corrupt document %q: %w", key, err)
	}
	return Document{Key: key, Rev: env.Rev, Body: env.Body}, nil
}
