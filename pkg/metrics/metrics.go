package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Lifecycle metrics
	AppointmentTransitions *prometheus.CounterVec
	SlotConflicts          prometheus.Counter

	// Notification metrics
	NotificationDeliveries *prometheus.CounterVec
	NotificationLatency    prometheus.Histogram

	// Access proxy metrics
	AccessDecisions *prometheus.CounterVec

	// HTTP metrics
	RequestTotal    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all application metrics against reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AppointmentTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_transitions_total",
			Help:      "Appointment lifecycle transitions by action and result",
		}, []string{"action", "result"}),
		SlotConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_slot_conflicts_total",
			Help:      "Booking or reschedule attempts rejected because the slot was held",
		}),
		NotificationDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_deliveries_total",
			Help:      "Notification channel deliveries by channel and result",
		}, []string{"channel", "result"}),
		NotificationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_fanout_duration_seconds",
			Help:      "Time spent fanning one event out to every channel",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		AccessDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_decisions_total",
			Help:      "Access proxy decisions by operation and decision",
		}, []string{"operation", "decision"}),
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// NewNop returns metrics registered on a throwaway registry.
func NewNop() *Metrics {
	return New("test", prometheus.NewRegistry())
}
