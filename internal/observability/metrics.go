package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "metcm_relay"

// Metrics holds the Prometheus collectors for the relay
type Metrics struct {
	DatagramsReceived *prometheus.CounterVec // labels: port
	DatagramsDropped  *prometheus.CounterVec // labels: reason={format,oversize,rate_limited}
	BulletinsAccepted prometheus.Counter
	PartialBulletins  prometheus.Counter
	BulletinsSent     prometheus.Counter
	SendErrors        prometheus.Counter
	ListenersRunning  prometheus.Gauge

	LatestBulletinAge prometheus.Gauge

	ArchiveBatchSize prometheus.Histogram
	ArchiveErrors    prometheus.Counter
	ArchiveDropped   prometheus.Counter

	Queries *prometheus.CounterVec // labels: outcome={ok,not_found,no_bulletin,empty_zone,decode_error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DatagramsReceived,
		m.DatagramsDropped,
		m.BulletinsAccepted,
		m.PartialBulletins,
		m.BulletinsSent,
		m.SendErrors,
		m.ListenersRunning,
		m.LatestBulletinAge,
		m.ArchiveBatchSize,
		m.ArchiveErrors,
		m.ArchiveDropped,
		m.Queries,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DatagramsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datagrams_received_total",
			Help:      "Datagrams read from a listening port.",
		}, []string{"port"}),
		DatagramsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datagrams_dropped_total",
			Help:      "Datagrams discarded before reaching the store, by reason.",
		}, []string{"reason"}),
		BulletinsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulletins_accepted_total",
			Help:      "Bulletins decoded and applied to the store.",
		}),
		PartialBulletins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulletins_partial_total",
			Help:      "Accepted bulletins that were missing trailing zones.",
		}),
		BulletinsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulletins_sent_total",
			Help:      "Bulletins handed to the network.",
		}),
		SendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_errors_total",
			Help:      "Sends that failed to leave the local socket.",
		}),
		ListenersRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listeners_running",
			Help:      "Listener workers currently bound and receiving.",
		}),
		LatestBulletinAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latest_bulletin_age_seconds",
			Help:      "Seconds since the latest bulletin was received, -1 when none.",
		}),
		ArchiveBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_batch_size",
			Help:      "Bulletins written per archive transaction.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		ArchiveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_errors_total",
			Help:      "Archive batches that failed to commit.",
		}),
		ArchiveDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_dropped_total",
			Help:      "Bulletins not archived because the queue was full.",
		}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Altitude queries by outcome.",
		}, []string{"outcome"}),
	}
}
