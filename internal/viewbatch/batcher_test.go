package viewbatch

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogiaan1904/dealview-tracker/internal/metrics"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
)

const testQuiet = 100 * time.Millisecond

type recordingTracker struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (r *recordingTracker) TrackView(_ context.Context, dealID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, dealID)
	return r.fail[dealID]
}

func (r *recordingTracker) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.calls...)
	sort.Strings(out)
	return out
}

type flushEvent struct {
	result FlushResult
	at     time.Time
}

func newTestBatcher(t *testing.T, tracker Tracker, opts ...Option) (*ViewBatcher, <-chan flushEvent) {
	t.Helper()

	opts = append([]Option{WithQuietPeriod(testQuiet)}, opts...)
	b := NewViewBatcher(tracker, logger.InitializeTestZapLogger(), opts...)

	settled := make(chan flushEvent, 16)
	b.disp.onSettled = func(r FlushResult) {
		settled <- flushEvent{result: r, at: time.Now()}
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = b.Close(ctx)
	})

	return b, settled
}

func waitFlush(t *testing.T, settled <-chan flushEvent) flushEvent {
	t.Helper()
	select {
	case ev := <-settled:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for flush")
		return flushEvent{}
	}
}

func assertNoFlush(t *testing.T, settled <-chan flushEvent, within time.Duration) {
	t.Helper()
	select {
	case ev := <-settled:
		t.Fatalf("unexpected flush of %v", ev.result.DealIDs)
	case <-time.After(within):
	}
}

func sortedIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func TestViewBatcher_RepeatedIDDispatchedOncePerFlush(t *testing.T) {
	tracker := &recordingTracker{}
	b, settled := newTestBatcher(t, tracker)

	for range 5 {
		require.NoError(t, b.Enqueue("deal-1"))
	}

	ev := waitFlush(t, settled)
	assert.Equal(t, []string{"deal-1"}, ev.result.DealIDs)
	assert.Equal(t, []string{"deal-1"}, tracker.Calls())
	assertNoFlush(t, settled, 2*testQuiet)
}

func TestViewBatcher_BurstCoalescesIntoOneFlush(t *testing.T) {
	tracker := &recordingTracker{}
	b, settled := newTestBatcher(t, tracker)

	var last time.Time
	for _, id := range []string{"a", "b", "a", "c"} {
		require.NoError(t, b.Enqueue(id))
		last = time.Now()
		time.Sleep(testQuiet / 4)
	}

	ev := waitFlush(t, settled)
	assert.Equal(t, []string{"a", "b", "c"}, sortedIDs(ev.result.DealIDs))
	assert.Empty(t, ev.result.Failed)
	assert.GreaterOrEqual(t, ev.at.Sub(last), testQuiet-10*time.Millisecond, "flush waits a quiet period after the last add")
	assert.Equal(t, []string{"a", "b", "c"}, tracker.Calls())

	assertNoFlush(t, settled, 2*testQuiet)
	assert.Equal(t, 0, b.Pending())
}

func TestViewBatcher_SpacedAddsFlushSeparately(t *testing.T) {
	tracker := &recordingTracker{}
	b, settled := newTestBatcher(t, tracker)

	require.NoError(t, b.Enqueue("x"))
	first := waitFlush(t, settled)
	assert.Equal(t, []string{"x"}, first.result.DealIDs)

	time.Sleep(testQuiet / 5)
	require.NoError(t, b.Enqueue("y"))
	second := waitFlush(t, settled)
	assert.Equal(t, []string{"y"}, second.result.DealIDs)

	assert.Equal(t, []string{"x", "y"}, tracker.Calls())
}

func TestViewBatcher_DrainedIDCanBeTrackedAgainInLaterFlush(t *testing.T) {
	tracker := &recordingTracker{}
	b, settled := newTestBatcher(t, tracker)

	require.NoError(t, b.Enqueue("deal-1"))
	waitFlush(t, settled)

	require.NoError(t, b.Enqueue("deal-1"))
	waitFlush(t, settled)

	assert.Equal(t, []string{"deal-1", "deal-1"}, tracker.Calls())
}

func TestViewBatcher_FailingCallDoesNotBlockSiblings(t *testing.T) {
	boom := errors.New("tracking endpoint unavailable")
	tracker := &recordingTracker{fail: map[string]error{"b": boom}}
	b, settled := newTestBatcher(t, tracker)

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, b.Enqueue(id))
	}

	ev := waitFlush(t, settled)
	assert.Equal(t, []string{"a", "b", "c", "d"}, tracker.Calls(), "every id is attempted")
	require.Len(t, ev.result.Failed, 1)
	assert.ErrorIs(t, ev.result.Failed["b"], boom)

	// the failed id is not re-buffered
	assert.Equal(t, 0, b.Pending())
	assertNoFlush(t, settled, 2*testQuiet)
}

func TestViewBatcher_PanickingTrackerIsContained(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	tracker := TrackerFunc(func(_ context.Context, dealID string) error {
		mu.Lock()
		calls = append(calls, dealID)
		mu.Unlock()
		if dealID == "bad" {
			panic("nil deal")
		}
		return nil
	})
	b, settled := newTestBatcher(t, tracker)

	require.NoError(t, b.Enqueue("good"))
	require.NoError(t, b.Enqueue("bad"))

	ev := waitFlush(t, settled)
	assert.Len(t, ev.result.Failed, 1)
	assert.Contains(t, ev.result.Failed, "bad")

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"good", "bad"}, calls)
}

func TestViewBatcher_BindingEnqueuesOncePerMount(t *testing.T) {
	tracker := &recordingTracker{}
	b, settled := newTestBatcher(t, tracker)

	card := b.NewBinding("deal-7")
	for _, ratio := range []float64{0.1, 0.6, 0.0, 0.8, 0.2, 1.0} {
		card.Observe(ratio)
	}

	ev := waitFlush(t, settled)
	assert.Equal(t, []string{"deal-7"}, ev.result.DealIDs)

	card.Observe(1.0)
	assertNoFlush(t, settled, 2*testQuiet)
	assert.Equal(t, []string{"deal-7"}, tracker.Calls())
}

func TestViewBatcher_EmptyDealIDRejected(t *testing.T) {
	b, settled := newTestBatcher(t, &recordingTracker{})

	assert.ErrorIs(t, b.Enqueue(""), ErrEmptyDealID)
	assertNoFlush(t, settled, 2*testQuiet)
}

func TestViewBatcher_CloseFlushesPendingAndRejectsNewViews(t *testing.T) {
	tracker := &recordingTracker{}
	b := NewViewBatcher(tracker, logger.InitializeTestZapLogger(), WithQuietPeriod(time.Hour))

	require.NoError(t, b.Enqueue("a"))
	require.NoError(t, b.Enqueue("b"))
	assert.Equal(t, 2, b.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, b.Close(ctx))

	assert.Equal(t, []string{"a", "b"}, tracker.Calls())
	assert.ErrorIs(t, b.Enqueue("c"), ErrBatcherClosed)
	require.NoError(t, b.Close(ctx), "closing twice is harmless")
}

func TestViewBatcher_CloseReturnsWhenContextExpires(t *testing.T) {
	release := make(chan struct{})
	tracker := TrackerFunc(func(context.Context, string) error {
		<-release
		return nil
	})
	b := NewViewBatcher(tracker, logger.InitializeTestZapLogger(), WithQuietPeriod(time.Hour))
	defer close(release)

	require.NoError(t, b.Enqueue("slow"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Close(ctx), context.DeadlineExceeded)
}

func TestViewBatcher_InstancesAreIsolated(t *testing.T) {
	t1, t2 := &recordingTracker{}, &recordingTracker{}
	b1, s1 := newTestBatcher(t, t1)
	b2, s2 := newTestBatcher(t, t2)

	require.NoError(t, b1.Enqueue("only-one"))
	require.NoError(t, b2.Enqueue("only-two"))

	assert.Equal(t, []string{"only-one"}, waitFlush(t, s1).result.DealIDs)
	assert.Equal(t, []string{"only-two"}, waitFlush(t, s2).result.DealIDs)
	assert.Equal(t, []string{"only-one"}, t1.Calls())
	assert.Equal(t, []string{"only-two"}, t2.Calls())
}

func TestViewBatcher_ContinuousStreamWithoutMaxWaitNeverFlushes(t *testing.T) {
	b, settled := newTestBatcher(t, &recordingTracker{})

	deadline := time.Now().Add(3 * testQuiet)
	for time.Now().Before(deadline) {
		require.NoError(t, b.Enqueue("scrolling"))
		time.Sleep(testQuiet / 4)
	}
	assertNoFlush(t, settled, 0)

	waitFlush(t, settled)
}

func TestViewBatcher_MaxWaitForcesFlushDuringContinuousStream(t *testing.T) {
	b, settled := newTestBatcher(t, &recordingTracker{}, WithMaxWait(2*testQuiet))

	deadline := time.Now().Add(4 * testQuiet)
	for time.Now().Before(deadline) {
		require.NoError(t, b.Enqueue("scrolling"))
		time.Sleep(testQuiet / 4)
	}

	select {
	case ev := <-settled:
		assert.Equal(t, []string{"scrolling"}, ev.result.DealIDs)
	default:
		t.Fatal("expected a forced flush before the stream ended")
	}
}

func TestViewBatcher_RecordsMetrics(t *testing.T) {
	m := metrics.NewViewMetrics(prometheus.NewRegistry())
	tracker := &recordingTracker{fail: map[string]error{"b": errors.New("down")}}
	b, settled := newTestBatcher(t, tracker, WithMetrics(m))

	for _, id := range []string{"a", "b", "a"} {
		require.NoError(t, b.Enqueue(id))
	}
	assert.Equal(t, float64(2), testutil.ToFloat64(m.PendingViews))

	waitFlush(t, settled)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ViewsEnqueued))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ViewsCoalesced))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FlushesTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DispatchTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DispatchTotal.WithLabelValues("failed")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.PendingViews))
}
