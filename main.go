package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"musiccrs/internal/agent"
	"musiccrs/internal/catalog"
	"musiccrs/internal/cover"
	"musiccrs/internal/handlers"
	"musiccrs/internal/logging"
	"musiccrs/internal/metrics"
	"musiccrs/internal/middleware"
	"musiccrs/internal/playlist"
	"musiccrs/internal/popularity"
	"musiccrs/internal/qa"
	"musiccrs/internal/ranking"
	"musiccrs/internal/resolver"
	"musiccrs/internal/startup"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Open the catalog
	catStart := time.Now()
	cat, err := catalog.Open(context.Background(), config.CatalogPath)
	if err != nil {
		logging.Fatal("Failed to open catalog: %v", err)
	}
	defer cat.Close()

	stats, err := cat.Stats(context.Background())
	if err != nil {
		logging.Fatal("Failed to read catalog: %v", err)
	}
	metrics.CatalogTracks.Set(float64(stats.TotalTracks))
	startup.LogCatalogInit(time.Since(catStart), stats.TotalTracks)

	// Popularity provider: Spotify when credentials are present,
	// corpus-only otherwise. The same client serves playback lookups.
	var provider popularity.Provider = popularity.Noop{}
	var details popularity.DetailsProvider
	if config.PopularityEnabled {
		sp := popularity.NewSpotifyProvider(
			config.SpotifyClientID, config.SpotifyClientSecret, config.PopularityTimeout)
		provider = sp
		details = sp
	}

	// Wire the engine
	ranker := ranking.New(cat, provider, config.PopularityBudget)
	engine := resolver.New(cat, ranker, config.SearchLimit)
	renderer := cover.New(config.CoversDir, config.CoversEnabled)
	playlists := playlist.NewStore(renderer)
	qaService := qa.New(cat, engine)
	crs := agent.New(cat, engine, playlists, qaService, details, config.DisplayLimit)

	// Setup router
	h := handlers.New(crs, cat, playlists)
	router := mux.NewRouter()
	h.RegisterRoutes(router, config.CoversDir, config.CoversEnabled)

	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Middleware chain: metrics innermost, then logging, then compression
	var handler http.Handler = router
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics scrape endpoint on its own port
	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		go metrics.Serve(config.MetricsPort)
	}

	go handleShutdown(srv)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func handleShutdown(srv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
