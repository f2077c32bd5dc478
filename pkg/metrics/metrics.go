package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OperationsTotal counts LwM2M operations dispatched, by operation
	// name and outcome ("ok" or the CoAP response code such as "4.04").
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdm_operations_total",
			Help: "Total number of LwM2M operations dispatched, by operation and result",
		},
		[]string{"op", "result"},
	)

	TransactionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sdm_transaction_duration_seconds",
			Help:    "Time from transaction begin to end, by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// RegistryObjectsTotal and RegistryInstancesTotal are gauges polled
	// from the registry by a Collector; the engine itself never touches
	// prometheus.
	RegistryObjectsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sdm_registry_objects_total",
			Help: "Number of Objects currently registered",
		},
	)

	RegistryInstancesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sdm_registry_instances_total",
			Help: "Number of Instances currently registered, by Object ID",
		},
		[]string{"oid"},
	)

	ActiveObservationsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sdm_active_observations_total",
			Help: "Number of occupied slots in the observation table",
		},
	)

	NotificationsEmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sdm_notifications_emitted_total",
			Help: "Total number of notifications emitted by the observation subsystem",
		},
	)

	NotificationsPendingTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sdm_notifications_pending_total",
			Help: "Number of observation records currently marked pending",
		},
	)

	// BlockTransfersTotal counts how many times a producing operation
	// had to pause for another CoAP block.
	BlockTransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdm_block_transfers_total",
			Help: "Total number of block-transfer continuations requested, by operation",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(OperationsTotal)
	prometheus.MustRegister(TransactionDuration)
	prometheus.MustRegister(RegistryObjectsTotal)
	prometheus.MustRegister(RegistryInstancesTotal)
	prometheus.MustRegister(ActiveObservationsTotal)
	prometheus.MustRegister(NotificationsEmittedTotal)
	prometheus.MustRegister(NotificationsPendingTotal)
	prometheus.MustRegister(BlockTransfersTotal)
}

// Handler returns the Prometheus HTTP handler for a /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing a single operation.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer starting now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
