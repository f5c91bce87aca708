// Package viewbatch coalesces "deal viewed" signals into debounced flushes.
//
// A Binding reports a card once it is visible enough. The ViewBatcher keeps
// the reported deal ids in a deduplicating Buffer and re-arms a flush timer
// on every report; once no report has arrived for the quiet period the
// buffer is drained and each id is handed to the Tracker in its own
// fire-and-forget call.
package viewbatch

import (
	"context"
	"sync"
	"time"

	"github.com/vogiaan1904/dealview-tracker/internal/metrics"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
)

// DefaultQuietPeriod is how long the batcher waits after the last report
// before flushing.
const DefaultQuietPeriod = time.Second

type options struct {
	quietPeriod time.Duration
	maxWait     time.Duration
	threshold   float64
	metrics     *metrics.ViewMetrics
}

type Option func(*options)

func WithQuietPeriod(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.quietPeriod = d
		}
	}
}

// WithMaxWait bounds how long a continuous stream of reports can postpone a
// flush. Zero, the default, keeps pure debounce behaviour.
func WithMaxWait(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.maxWait = d
		}
	}
}

func WithThreshold(t float64) Option {
	return func(o *options) {
		if t > 0 && t <= 1 {
			o.threshold = t
		}
	}
}

func WithMetrics(m *metrics.ViewMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// ViewBatcher owns one pending buffer, one flush timer and one dispatcher.
// Independent instances share no state.
type ViewBatcher struct {
	buf   *Buffer
	sched *scheduler
	disp  *Dispatcher
	l     logger.Logger
	m     *metrics.ViewMetrics
	opts  options

	// ctx is handed to every tracker call; it is never cancelled so that
	// in-flight dispatches outlive Close.
	ctx context.Context

	mu     sync.RWMutex
	closed bool
}

func NewViewBatcher(tracker Tracker, l logger.Logger, opts ...Option) *ViewBatcher {
	o := options{
		quietPeriod: DefaultQuietPeriod,
		threshold:   DefaultVisibilityThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}

	b := &ViewBatcher{
		buf:  NewBuffer(),
		disp: NewDispatcher(tracker, l, o.metrics),
		l:    l,
		m:    o.metrics,
		opts: o,
		ctx:  context.Background(),
	}
	b.sched = newScheduler(o.quietPeriod, o.maxWait, b.Flush)

	return b
}

// Enqueue buffers dealID for the next flush and re-arms the flush timer.
// Re-arming happens even when dealID is already pending.
func (b *ViewBatcher) Enqueue(dealID string) error {
	if dealID == "" {
		return ErrEmptyDealID
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBatcherClosed
	}

	if b.buf.Add(dealID) {
		b.count(func(m *metrics.ViewMetrics) { m.ViewsEnqueued.Inc() })
	} else {
		b.count(func(m *metrics.ViewMetrics) { m.ViewsCoalesced.Inc() })
	}
	b.setPending()

	b.sched.Arm()
	return nil
}

// NewBinding returns a Binding for one card instance of dealID that reports
// into this batcher.
func (b *ViewBatcher) NewBinding(dealID string) *Binding {
	return NewBinding(dealID, b.opts.threshold, func(id string) {
		if err := b.Enqueue(id); err != nil {
			b.l.Warnf(b.ctx, "viewbatch.ViewBatcher.NewBinding: %v", err)
		}
	})
}

// Flush drains the buffer and dispatches its ids without waiting for the
// calls to settle.
func (b *ViewBatcher) Flush() {
	ids := b.buf.DrainAll()
	b.setPending()
	if len(ids) == 0 {
		return
	}

	b.count(func(m *metrics.ViewMetrics) {
		m.FlushesTotal.Inc()
		m.FlushBatchSize.Observe(float64(len(ids)))
	})

	b.l.Debugf(b.ctx, "Flushing %d pending deal views", len(ids))
	b.disp.Dispatch(b.ctx, ids)
}

func (b *ViewBatcher) Pending() int {
	return b.buf.Len()
}

func (b *ViewBatcher) Threshold() float64 {
	return b.opts.threshold
}

// Close stops the flush timer, flushes what is still pending and waits for
// in-flight dispatches until ctx is done. Enqueue fails after Close.
func (b *ViewBatcher) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return b.disp.Wait(ctx)
	}
	b.closed = true
	b.mu.Unlock()

	b.sched.Stop()
	b.Flush()

	if err := b.disp.Wait(ctx); err != nil {
		b.l.Warnf(ctx, "viewbatch.ViewBatcher.Close: %v", err)
		return err
	}

	b.l.Info(ctx, "View batcher closed")
	return nil
}

func (b *ViewBatcher) setPending() {
	b.count(func(m *metrics.ViewMetrics) { m.PendingViews.Set(float64(b.buf.Len())) })
}

func (b *ViewBatcher) count(fn func(m *metrics.ViewMetrics)) {
	if b.m != nil {
		fn(b.m)
	}
}
