package metrics

import "github.com/prometheus/client_golang/prometheus"

// Tracker groups the collectors of the tracking cycle. Registered once at
// wiring and shared by the scheduler and the diff engine.
type Tracker struct {
	CyclesTotal      prometheus.Counter
	CyclesSkipped    prometheus.Counter
	CycleDuration    prometheus.Histogram
	ItemsProcessed   *prometheus.CounterVec
	OwnershipChanges prometheus.Counter
	SaleEvents       prometheus.Counter
	UnitsEstimated   prometheus.Counter
	RateLimitHits    prometheus.Counter
}

// ItemResult label values for ItemsProcessed.
const (
	ResultProcessed = "processed"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

func NewTracker(reg prometheus.Registerer) *Tracker {
	t := &Tracker{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buybox_cycles_total",
			Help: "Completed tracking cycles.",
		}),
		CyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buybox_cycles_skipped_total",
			Help: "Ticks skipped because the previous cycle was still running.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "buybox_cycle_duration_seconds",
			Help:    "Wall-clock duration of a full tracking cycle.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		ItemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buybox_items_total",
			Help: "Tracked items handled per cycle, by result.",
		}, []string{"result"}),
		OwnershipChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buybox_ownership_changes_total",
			Help: "Detected featured-offer ownership changes.",
		}),
		SaleEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buybox_sale_events_total",
			Help: "Inferred sale events.",
		}),
		UnitsEstimated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buybox_units_estimated_total",
			Help: "Estimated units sold, summed over sale events.",
		}),
		RateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buybox_provider_rate_limited_total",
			Help: "Rate-limit responses from the marketplace provider.",
		}),
	}

	reg.MustRegister(
		t.CyclesTotal,
		t.CyclesSkipped,
		t.CycleDuration,
		t.ItemsProcessed,
		t.OwnershipChanges,
		t.SaleEvents,
		t.UnitsEstimated,
		t.RateLimitHits,
	)

	return t
}
