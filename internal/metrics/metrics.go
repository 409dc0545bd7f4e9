package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcode_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transcode_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transcode_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Queue metrics
var (
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transcode_queue_depth",
			Help: "Number of work items pending per queue",
		},
		[]string{"queue"},
	)

	ItemsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcode_items_enqueued_total",
			Help: "Total work items enqueued per queue",
		},
		[]string{"queue"},
	)
)

// Transcode metrics
var (
	TranscodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcode_jobs_total",
			Help: "Total transcode jobs by kind, profile and outcome",
		},
		[]string{"kind", "profile", "status"},
	)

	TranscodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transcode_job_duration_seconds",
			Help:    "Wall time of one transcode job, including the file move",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"kind", "profile"},
	)

	SubprocessesStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcode_subprocesses_started_total",
			Help: "External processes spawned, by command name",
		},
		[]string{"command"},
	)
)

// Result pipeline metrics
var (
	ResultsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transcode_results_published_total",
			Help: "Results published on the transcode.finished topic",
		},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcode_events_dropped_total",
			Help: "Events dropped because a subscriber could not keep up",
		},
		[]string{"topic"},
	)

	LostWork = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcode_lost_work_total",
			Help: "Work abandoned at shutdown, by category",
		},
		[]string{"category"},
	)
)

// Store metrics
var (
	VersionsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transcode_media_versions_recorded_total",
			Help: "Media versions written to the version store",
		},
	)

	StoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transcode_store_errors_total",
			Help: "Failed writes to the version store",
		},
	)
)
