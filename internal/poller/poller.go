// SPDX-License-Identifier: MIT

// Package poller re-fetches a meeting's status at a fixed interval while it
// is still processing and propagates the latest record to an observer. It
// stops on its own once the meeting reaches a terminal state, and its timer
// never outlives Stop.
package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/meetscribe/meetscribe/internal/log"
	"github.com/meetscribe/meetscribe/internal/meeting"
)

// DefaultInterval matches the reference client's 5 second re-fetch cadence.
const DefaultInterval = 5 * time.Second

// Fetcher loads the current state of one meeting.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*meeting.Meeting, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, id string) (*meeting.Meeting, error)

func (f FetcherFunc) Fetch(ctx context.Context, id string) (*meeting.Meeting, error) {
	return f(ctx, id)
}

// Watcher polls a single meeting until it settles or is stopped.
type Watcher struct {
	fetcher  Fetcher
	id       string
	interval time.Duration
	onUpdate func(*meeting.Meeting)

	cancel   context.CancelFunc
	done     chan struct{}
	inFlight atomic.Bool
	stopOnce sync.Once
}

// Watch starts polling the meeting with the given id. onUpdate receives
// every successfully fetched record, including the terminal one. Ticks that
// would overlap a fetch still in flight are skipped, not queued, so slow
// fetches never accumulate. Cancelling ctx or calling Stop tears the watcher
// down regardless of meeting state.
func Watch(ctx context.Context, fetcher Fetcher, id string, interval time.Duration, onUpdate func(*meeting.Meeting)) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		fetcher:  fetcher,
		id:       id,
		interval: interval,
		onUpdate: onUpdate,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go w.run(ctx)
	return w
}

// Stop cancels the watcher. It is safe to call more than once and from the
// update callback.
func (w *Watcher) Stop() {
	w.stopOnce.Do(w.cancel)
}

// Done is closed once the watcher has fully torn down, including any fetch
// still in flight.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) run(ctx context.Context) {
	logger := log.WithComponent("poller").With().Str(log.FieldMeetingID, w.id).Logger()

	ticker := time.NewTicker(w.interval)
	var fetches sync.WaitGroup

	defer func() {
		ticker.Stop()
		fetches.Wait()
		close(w.done)
	}()

	// First fetch immediately; subsequent fetches on the tick.
	w.spawnFetch(ctx, &fetches, logger)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.inFlight.Load() {
				logger.Debug().
					Str(log.FieldEvent, "poll.tick_skipped").
					Msg("previous fetch still in flight, skipping tick")
				continue
			}
			w.spawnFetch(ctx, &fetches, logger)
		}
	}
}

func (w *Watcher) spawnFetch(ctx context.Context, fetches *sync.WaitGroup, logger zerolog.Logger) {
	w.inFlight.Store(true)
	fetches.Add(1)
	go func() {
		defer fetches.Done()
		defer w.inFlight.Store(false)

		m, err := w.fetcher.Fetch(ctx, w.id)
		if err != nil {
			if errors.Is(err, meeting.ErrNotFound) {
				// Deleted while watching; nothing left to observe.
				logger.Info().
					Str(log.FieldEvent, "poll.gone").
					Msg("meeting no longer exists, stopping watcher")
				w.Stop()
				return
			}
			if ctx.Err() != nil {
				return
			}
			logger.Warn().
				Err(err).
				Str(log.FieldEvent, "poll.fetch_failed").
				Msg("status fetch failed, will retry on next tick")
			return
		}

		if w.onUpdate != nil {
			w.onUpdate(m)
		}
		if m.Status.IsTerminal() {
			logger.Debug().
				Str(log.FieldEvent, "poll.settled").
				Str(log.FieldNewStatus, string(m.Status)).
				Msg("meeting settled, stopping watcher")
			w.Stop()
		}
	}()
}
