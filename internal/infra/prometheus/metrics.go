package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultApplied = "applied"
	ResultNoop    = "noop"
	ResultError   = "error"
)

var (
	// ListingStatusActions counts pause/resume requests by outcome.
	ListingStatusActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_status_actions_total",
			Help: "Pause and resume requests by action and result",
		},
		[]string{"action", "result"},
	)

	// ListingStatusActionDuration tracks end-to-end pause/resume latency including the update.
	ListingStatusActionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "listing_status_action_duration_seconds",
			Help: "Duration of pause and resume requests in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
			},
		},
		[]string{"action"},
	)

	// AdminNotificationsStored counts notifications written by the event consumer.
	AdminNotificationsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_notifications_stored_total",
			Help: "Admin notifications persisted from listing events",
		},
		[]string{"type"},
	)
)

// RecordStatusAction records the outcome and latency of a pause/resume request.
func RecordStatusAction(action, result string, seconds float64) {
	ListingStatusActions.WithLabelValues(action, result).Inc()
	ListingStatusActionDuration.WithLabelValues(action).Observe(seconds)
}
