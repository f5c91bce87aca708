package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ViewMetrics tracks the view batching pipeline from visibility signal to dispatch.
type ViewMetrics struct {
	ViewsEnqueued   prometheus.Counter
	ViewsCoalesced  prometheus.Counter
	FlushesTotal    prometheus.Counter
	FlushBatchSize  prometheus.Histogram
	DispatchTotal   *prometheus.CounterVec
	PendingViews    prometheus.Gauge
	ActiveBindings  prometheus.Gauge
	BindingsEvicted prometheus.Counter
	ViewsRecorded   *prometheus.CounterVec
}

// NewViewMetrics creates the view metrics and registers them on reg.
// Pass prometheus.NewRegistry() in tests to keep registrations isolated.
func NewViewMetrics(reg prometheus.Registerer) *ViewMetrics {
	f := promauto.With(reg)
	return &ViewMetrics{
		ViewsEnqueued: f.NewCounter(prometheus.CounterOpts{
			Name: "dealview_views_enqueued_total",
			Help: "Total deal view signals added to the pending buffer",
		}),
		ViewsCoalesced: f.NewCounter(prometheus.CounterOpts{
			Name: "dealview_views_coalesced_total",
			Help: "Deal view signals dropped because the deal was already pending",
		}),
		FlushesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "dealview_flushes_total",
			Help: "Total non-empty flushes of the pending buffer",
		}),
		FlushBatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dealview_flush_batch_size",
			Help:    "Number of deal ids dispatched per flush",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 250},
		}),
		DispatchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealview_dispatch_total",
				Help: "Tracking calls issued by the dispatcher",
			},
			[]string{"status"},
		),
		PendingViews: f.NewGauge(prometheus.GaugeOpts{
			Name: "dealview_pending_views",
			Help: "Deal ids currently waiting for the next flush",
		}),
		ActiveBindings: f.NewGauge(prometheus.GaugeOpts{
			Name: "dealview_active_bindings",
			Help: "Mounted card instances being observed",
		}),
		BindingsEvicted: f.NewCounter(prometheus.CounterOpts{
			Name: "dealview_bindings_evicted_total",
			Help: "Card bindings detached by the idle sweep",
		}),
		ViewsRecorded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealview_views_recorded_total",
				Help: "View counter increments written to the store",
			},
			[]string{"source"},
		),
	}
}
