// internal/app/system/workers/pinexpiry.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	attendeestore "github.com/villagehq/village/internal/app/store/attendees"
	connectionstore "github.com/villagehq/village/internal/app/store/connections"
	pinstore "github.com/villagehq/village/internal/app/store/pins"
	"github.com/villagehq/village/internal/domain/models"
)

// PinExpiry is a background worker that marks started pins inactive and
// seeds connection suggestions between their attendees.
//
// Ticks never overlap: the scan runs inline in the worker loop, so a slow
// scan simply delays the next one. There is no persisted checkpoint; a
// failed scan is retried wholesale next tick, which is safe because the
// active flag and the composite suggestion keys make every side effect
// idempotent.
type PinExpiry struct {
	pins        *pinstore.Store
	attendees   *attendeestore.Store
	connections *connectionstore.Store
	log         *zap.Logger

	interval time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewPinExpiry creates a pin expiry worker that scans every interval
// (e.g., 10 minutes).
func NewPinExpiry(pins *pinstore.Store, attendees *attendeestore.Store, connections *connectionstore.Store, logger *zap.Logger, interval time.Duration) *PinExpiry {
	return &PinExpiry{
		pins:        pins,
		attendees:   attendees,
		connections: connections,
		log:         logger,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the background scan loop.
func (w *PinExpiry) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("pin expiry worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for an in-flight scan to finish.
func (w *PinExpiry) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("pin expiry worker stopped")
}

func (w *PinExpiry) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.scan(time.Now())
		}
	}
}

// scan walks every pin that has started, in ascending start-time order, and
// expires the ones still active. An explicit Active filter is used rather
// than stopping at the first inactive pin, so an out-of-order historical
// write can never hide a still-active expired pin; the full walk also means
// a pin stays expirable no matter how long the worker was down. Most of the
// namespace is already inactive and filters straight through.
func (w *PinExpiry) scan(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	candidates, err := w.pins.GetStartedBefore(ctx, now)
	if err != nil {
		w.log.Error("pin expiry scan failed, will retry next tick", zap.Error(err))
		return
	}

	var expiring []models.Pin
	for _, p := range candidates {
		if p.Active {
			expiring = append(expiring, p)
		}
	}
	if len(expiring) == 0 {
		return
	}

	// Pins are processed concurrently and in isolation: one pin's failure
	// is logged and must not block the others.
	var wg sync.WaitGroup
	for _, p := range expiring {
		wg.Add(1)
		go func(p models.Pin) {
			defer wg.Done()
			if err := w.expirePin(ctx, p); err != nil {
				w.log.Error("expiring pin failed",
					zap.String("pin_id", p.ID),
					zap.Error(err))
			}
		}(p)
	}
	wg.Wait()

	w.log.Info("expired pins", zap.Int("count", len(expiring)))
}

// expirePin persists active=false, then suggests connections between every
// pair of attendees not already connected. Suggestions are one-directional:
// each attendee generates suggestions from their own perspective.
func (w *PinExpiry) expirePin(ctx context.Context, p models.Pin) error {
	p.Active = false
	if _, err := w.pins.Update(ctx, p); err != nil {
		return err
	}

	attendees, err := w.attendees.ListForPin(ctx, p.ID)
	if err != nil {
		return err
	}
	if len(attendees) < 2 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range attendees {
		g.Go(func() error {
			return w.suggestFor(gctx, a.UserID, attendees)
		})
	}
	return g.Wait()
}

func (w *PinExpiry) suggestFor(ctx context.Context, userID string, attendees []models.PinAttendee) error {
	conns, err := w.connections.ListForUser(ctx, userID)
	if err != nil {
		return err
	}
	connected := make(map[string]struct{}, len(conns))
	for _, c := range conns {
		connected[c.TargetID] = struct{}{}
	}

	for _, other := range attendees {
		if other.UserID == userID {
			continue
		}
		if _, ok := connected[other.UserID]; ok {
			continue
		}
		if _, err := w.connections.Suggest(ctx, userID, other.UserID); err != nil {
			return err
		}
	}
	return nil
}
