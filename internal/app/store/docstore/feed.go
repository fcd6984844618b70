// internal/app/store/docstore/feed.go
package docstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// SinceNow is the only supported feed checkpoint: deliver future mutations
// only, never replay history.
const SinceNow = "now"

// ChangeEvent describes one committed mutation. For puts, Rev and Body carry
// the new document state; for removes, Deleted is set and Body is nil.
type ChangeEvent struct {
	Key     string
	Rev     string
	Body    []byte
	Deleted bool
}

// Subscription is a live, cancellable view of the mutation feed. Events for
// a given key arrive in commit order. C is closed when the subscription is
// cancelled or the store shuts down.
type Subscription struct {
	C <-chan ChangeEvent

	ch      chan ChangeEvent
	prefix  string
	store   *Store
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

// Watch subscribes to mutations whose key starts with prefix, beginning at
// the given checkpoint. Only SinceNow is supported; the feed keeps no
// persisted history to replay. The subscription ends when ctx is cancelled,
// Close is called, or the store closes. A consumer that falls behind loses
// events (they are dropped and counted), matching the resume-from-now
// semantics callers already accept after a reconnect.
func (s *Store) Watch(ctx context.Context, since, prefix string) (*Subscription, error) {
	if since != SinceNow {
		return nil, fmt.Errorf("watch %q: unsupported checkpoint %q (only %q)", prefix, since, SinceNow)
	}

	sub := &Subscription{
		ch:     make(chan ChangeEvent, 128),
		prefix: prefix,
		store:  s,
		done:   make(chan struct{}),
	}
	sub.C = sub.ch

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("watch %q: %w", prefix, ErrUnavailable)
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// Close cancels the subscription and releases the underlying watch. It is
// safe to call more than once.
func (sub *Subscription) Close() {
	sub.store.mu.Lock()
	if sub.store.subs != nil {
		delete(sub.store.subs, sub)
	}
	sub.store.mu.Unlock()
	sub.drop()
}

// Dropped reports how many events were discarded because the consumer fell
// behind.
func (sub *Subscription) Dropped() int64 {
	return sub.dropped.Load()
}

// drop closes the event channel. Callers must have already removed sub from
// the store's subscriber set (or hold s.mu, as Store.Close does).
func (sub *Subscription) drop() {
	sub.once.Do(func() {
		close(sub.done)
		close(sub.ch)
	})
}

// publish fans an event out to matching subscribers. Called with s.mu held,
// immediately after the originating commit, so subscribers observe per-key
// commit order.
func (s *Store) publish(ev ChangeEvent) {
	for sub := range s.subs {
		if !strings.HasPrefix(ev.Key, sub.prefix) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			n := sub.dropped.Add(1)
			s.log.Warn("mutation feed subscriber lagging, dropping event",
				zap.String("prefix", sub.prefix),
				zap.String("key", ev.Key),
				zap.Int64("dropped", n))
		}
	}
}
