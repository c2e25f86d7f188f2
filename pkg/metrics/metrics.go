package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sangam_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// LiveConnections tracks currently registered websocket connections by namespace (user|admin).
	LiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sangam_live_connections",
			Help: "Number of registered realtime connections",
		},
		[]string{"namespace"},
	)

	// EventsDropped counts realtime events that could not be delivered to a connection.
	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sangam_realtime_events_dropped_total",
			Help: "Total realtime events dropped due to slow or dead connections",
		},
		[]string{"namespace"},
	)

	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sangam_notifications_created_total",
			Help: "Total persisted notifications",
		},
		[]string{"type"},
	)

	// SchedulerScans counts premium expiry scan cycles by result (ok|error).
	SchedulerScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sangam_premium_scans_total",
			Help: "Total premium expiry scan cycles",
		},
		[]string{"result"},
	)

	// SchedulerScanDuration measures how long a full premium scan takes.
	SchedulerScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sangam_premium_scan_duration_seconds",
			Help:    "Duration of premium expiry scan cycles",
			Buckets: prometheus.DefBuckets,
		},
	)
)
