package viewbatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/vogiaan1904/dealview-tracker/internal/metrics"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
)

// Tracker records a single deal view with the tracking collaborator.
type Tracker interface {
	TrackView(ctx context.Context, dealID string) error
}

// TrackerFunc adapts a plain function to Tracker.
type TrackerFunc func(ctx context.Context, dealID string) error

func (f TrackerFunc) TrackView(ctx context.Context, dealID string) error {
	return f(ctx, dealID)
}

// FlushResult describes a settled flush: every id was attempted once and
// Failed holds the error for each id whose call did not succeed.
type FlushResult struct {
	DealIDs []string
	Failed  map[string]error
}

// Dispatcher fans a drained batch out to the Tracker, one detached call per
// id. Calls never retry and a failing call does not affect its siblings.
type Dispatcher struct {
	tracker Tracker
	l       logger.Logger
	m       *metrics.ViewMetrics

	inFlight sync.WaitGroup

	// onSettled runs after every call of a flush has returned.
	onSettled func(FlushResult)
}

func NewDispatcher(tracker Tracker, l logger.Logger, m *metrics.ViewMetrics) *Dispatcher {
	return &Dispatcher{
		tracker: tracker,
		l:       l,
		m:       m,
	}
}

// Dispatch starts one TrackView call per id and returns without waiting.
func (d *Dispatcher) Dispatch(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}

	d.inFlight.Go(func() {
		var (
			batch  sync.WaitGroup
			mu     sync.Mutex
			failed = make(map[string]error)
		)

		for _, id := range ids {
			batch.Go(func() {
				if err := d.track(ctx, id); err != nil {
					mu.Lock()
					failed[id] = err
					mu.Unlock()

					d.l.Warnf(ctx, "viewbatch.Dispatcher.Dispatch: %v", fmt.Errorf("%w: deal %s: %v", ErrDispatchFailed, id, err))
					d.observe("failed")
					return
				}
				d.observe("success")
			})
		}

		batch.Wait()

		d.l.Debugf(ctx, "Flush settled - dispatched: %d, failed: %d", len(ids), len(failed))

		if d.onSettled != nil {
			d.onSettled(FlushResult{DealIDs: ids, Failed: failed})
		}
	})
}

func (d *Dispatcher) track(ctx context.Context, dealID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tracker panicked: %v", r)
		}
	}()

	return d.tracker.TrackView(ctx, dealID)
}

func (d *Dispatcher) observe(status string) {
	if d.m != nil {
		d.m.DispatchTotal.WithLabelValues(status).Inc()
	}
}

// Wait blocks until every dispatched call has settled or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
