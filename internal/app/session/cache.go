// internal/app/session/cache.go
package session

// The cache is an in-memory mirror of session documents. Reads populate it
// lazily; a mutation-feed subscription keeps resident entries consistent
// with writes made elsewhere (other processes, other replicas) without
// polling. Absence in memory means nothing; absence in the store is the
// authoritative deletion signal.

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/villagehq/village/internal/app/store/docstore"
)

// Tag is the key namespace for session documents: "sess:{sid}".
const Tag = "sess"

var keyPrefix = Tag + docstore.Separator

type entry struct {
	fields map[string]any
	rev    string
}

// Cache serves session reads and writes against the document store, keeping
// resident entries fresh via the store's mutation feed. Both the request
// path and the feed loop mutate the map, so every access goes through mu.
type Cache struct {
	store *docstore.Store
	log   *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCache builds a cache and starts its feed-reconciliation loop. The
// subscription is established before NewCache returns, so no mutation
// committed after construction can slip past the feed; it starts from "now"
// and absorbs future external writes, never history. Call Close on shutdown
// to release the subscription.
func NewCache(store *docstore.Store, logger *zap.Logger) (*Cache, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		store:   store,
		log:     logger,
		entries: make(map[string]*entry),
		cancel:  cancel,
	}
	sub, err := store.Watch(ctx, docstore.SinceNow, keyPrefix)
	if err != nil {
		cancel()
		return nil, err
	}
	c.wg.Add(1)
	go c.reconcile(ctx, sub)
	return c, nil
}

// Close stops the feed loop and releases the subscription.
func (c *Cache) Close() {
	c.cancel()
	c.wg.Wait()
}

// Get returns the session payload for sid. A cached entry is served from
// memory; otherwise the store is read and the result cached. A miss is
// (nil, false, nil) and is never cached, so a session created concurrently
// by another process is found on the next read.
func (c *Cache) Get(ctx context.Context, sid string) (map[string]any, bool, error) {
	c.mu.Lock()
	if e, ok := c.entries[sid]; ok {
		out := copyFields(e.fields)
		c.mu.Unlock()
		return out, true, nil
	}
	c.mu.Unlock()

	doc, err := c.store.Get(ctx, docstore.Key(Tag, sid))
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	fields := make(map[string]any)
	if err := docstore.Unmarshal(doc, &fields); err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	c.entries[sid] = &entry{fields: fields, rev: doc.Rev}
	out := copyFields(fields)
	c.mu.Unlock()
	return out, true, nil
}

// Set merges payload into the session and persists the merged document with
// its last-known revision. The merge is field-wise, not a full replace, so
// concurrent partial updates arriving via the feed are not clobbered. A
// revision conflict propagates to the caller, who retries after a fresh Get.
func (c *Cache) Set(ctx context.Context, sid string, payload map[string]any) error {
	c.mu.Lock()
	merged := make(map[string]any)
	rev := ""
	if e, ok := c.entries[sid]; ok {
		merged = copyFields(e.fields)
		rev = e.rev
	}
	for k, v := range payload {
		merged[k] = v
	}
	c.mu.Unlock()

	doc, err := docstore.Marshal(docstore.Key(Tag, sid), rev, merged)
	if err != nil {
		return err
	}
	doc, err = c.store.Put(ctx, doc)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.entries[sid] = &entry{fields: merged, rev: doc.Rev}
	c.mu.Unlock()
	return nil
}

// Destroy removes the session from the store (using the last-known revision
// when one is cached) and evicts it. Destroying an absent session is a
// no-op.
func (c *Cache) Destroy(ctx context.Context, sid string) error {
	c.mu.Lock()
	rev := ""
	if e, ok := c.entries[sid]; ok {
		rev = e.rev
	}
	delete(c.entries, sid)
	c.mu.Unlock()

	err := c.store.Remove(ctx, docstore.Document{Key: docstore.Key(Tag, sid), Rev: rev})
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	return err
}

// Len reports how many sessions are resident in memory.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// reconcile consumes the mutation feed for the session namespace, merging
// events into resident entries. The first subscription is handed in by
// NewCache; only resubscription after a feed failure is asynchronous. It
// runs unattended: errors are logged, and resubscription starts from "now",
// accepting the gap (no checkpoint is persisted).
func (c *Cache) reconcile(ctx context.Context, sub *docstore.Subscription) {
	defer c.wg.Done()

	for {
		for ev := range sub.C {
			c.apply(ev)
		}
		if ctx.Err() != nil {
			return
		}
		c.log.Warn("session feed ended, resubscribing from now")

		var err error
		sub, err = c.store.Watch(ctx, docstore.SinceNow, keyPrefix)
		for err != nil {
			if ctx.Err() != nil || errors.Is(err, docstore.ErrUnavailable) {
				return
			}
			c.log.Error("session feed subscribe failed, retrying", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			sub, err = c.store.Watch(ctx, docstore.SinceNow, keyPrefix)
		}
	}
}

// apply merges one feed event into the cache. Events for sessions not in
// memory are ignored; the feed never creates entries, only refreshes or
// evicts ones a Get or Set already admitted.
func (c *Cache) apply(ev docstore.ChangeEvent) {
	sid := strings.TrimPrefix(ev.Key, keyPrefix)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[sid]
	if !ok {
		return
	}
	if ev.Deleted {
		delete(c.entries, sid)
		return
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(ev.Body, &fields); err != nil {
		c.log.Error("session feed event undecodable, evicting entry",
			zap.String("sid", sid), zap.Error(err))
		delete(c.entries, sid)
		return
	}
	for k, v := range fields {
		e.fields[k] = v
	}
	e.rev = ev.Rev
}

func copyFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
