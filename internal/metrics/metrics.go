package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musiccrs_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "musiccrs_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "musiccrs_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Catalog metrics
var (
	CatalogQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musiccrs_catalog_queries_total",
			Help: "Total number of catalog queries",
		},
		[]string{"operation", "status"},
	)

	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "musiccrs_catalog_query_duration_seconds",
			Help:    "Catalog query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	CatalogTracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "musiccrs_catalog_tracks",
			Help: "Number of tracks in the catalog",
		},
	)
)

// Resolution metrics
var (
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musiccrs_resolutions_total",
			Help: "Track resolutions by intent and outcome",
		},
		[]string{"intent", "outcome"}, // intent: add|question; outcome: unique|empty|ambiguous
	)

	SelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musiccrs_selections_total",
			Help: "Disambiguation selections by result",
		},
		[]string{"result"}, // applied|out_of_range|no_pending
	)

	UtterancesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musiccrs_utterances_total",
			Help: "Handled utterances by command",
		},
		[]string{"command"},
	)
)

// Popularity provider metrics
var (
	PopularityLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musiccrs_popularity_lookups_total",
			Help: "External popularity lookups by status",
		},
		[]string{"status"}, // hit|miss|error|cached
	)

	PopularityLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "musiccrs_popularity_lookup_duration_seconds",
			Help:    "External popularity lookup duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Cover renderer metrics
var (
	CoverRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musiccrs_cover_renders_total",
			Help: "Playlist cover renders by status",
		},
		[]string{"status"}, // success|error
	)

	CoverRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "musiccrs_cover_render_duration_seconds",
			Help:    "Playlist cover render duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)
)

// Session metrics
var (
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "musiccrs_active_sessions",
			Help: "Number of sessions with in-memory state",
		},
	)

	PendingSelections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "musiccrs_pending_selections",
			Help: "Number of sessions awaiting a disambiguation selection",
		},
	)
)
