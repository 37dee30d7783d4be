package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"musiccrs/internal/logging"
)

// InitializeMetrics pre-populates expected label combinations so every
// metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, op := range []string{"find_exact", "find_by_title", "find_fuzzy", "track_by_id",
		"occurrence_count", "count_by_artist", "albums_by_artist", "top_tracks_by_artist",
		"similar_artists", "suggest_titles", "stats", "ingest"} {
		CatalogQueryTotal.WithLabelValues(op, "success")
		CatalogQueryTotal.WithLabelValues(op, "error")
		CatalogQueryDuration.WithLabelValues(op)
	}

	for _, intent := range []string{"add", "question"} {
		for _, outcome := range []string{"unique", "empty", "ambiguous"} {
			ResolutionsTotal.WithLabelValues(intent, outcome)
		}
	}

	for _, result := range []string{"applied", "out_of_range", "no_pending"} {
		SelectionsTotal.WithLabelValues(result)
	}

	for _, status := range []string{"hit", "miss", "error", "cached"} {
		PopularityLookupsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"success", "error"} {
		CoverRendersTotal.WithLabelValues(status)
	}
}

// Serve starts the Prometheus scrape endpoint on its own port.
func Serve(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logging.Info("Metrics server listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.Error("Metrics server error: %v", err)
	}
}
