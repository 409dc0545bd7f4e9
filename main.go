package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"transcode-service/internal/coordinator"
	"transcode-service/internal/handlers"
	"transcode-service/internal/logging"
	"transcode-service/internal/metrics"
	"transcode-service/internal/middleware"
	"transcode-service/internal/pubsub"
	"transcode-service/internal/startup"
	"transcode-service/internal/store"
	"transcode-service/internal/transcode"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()

	// Fast image path; falls back to pure Go resizing when unavailable.
	transcode.InitVips()

	// Version database
	dbStart := time.Now()
	versionStore, err := store.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize version database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	// Event bus and result recording
	bus := pubsub.NewBus()
	stopRecorder := versionStore.Listen(bus)

	// Transcode pipeline
	startup.LogTranscoderInit()
	coord := coordinator.New(coordinator.Config{
		MediaRoot:    config.MediaRoot,
		ResultBuffer: config.ResultBuffer,
		ImageWorkers: config.ImageWorkers,
	}, bus)
	coord.Start()

	// HTTP API
	h := handlers.New(coord, versionStore, bus)
	router := setupRouter(h, config)

	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics listener on its own port so scrapes bypass the API middleware
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, coord, versionStore, stopRecorder)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()

	// Health and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/transcode", h.SubmitTranscode).Methods("POST")
	api.HandleFunc("/media/{msgID}/versions", h.GetMediaVersions).Methods("GET")
	api.HandleFunc("/events", h.StreamEvents).Methods("GET")

	// Metrics on the main port too when no dedicated listener is running
	if !config.MetricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	}

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, coord *coordinator.Coordinator, versionStore *store.Store, stopRecorder func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Draining first flips the pipeline to refuse new submissions, so
	// requests arriving while we tear down get a clean 503.
	startup.LogShutdownStep("Draining transcode pipeline")
	report := coord.Shutdown()
	if report.Empty() {
		startup.LogShutdownStepComplete("Pipeline drained, no work lost")
	} else {
		startup.LogShutdownStepComplete("Pipeline drained with lost work (see log above)")
	}

	startup.LogShutdownStep("Stopping version recorder")
	stopRecorder()
	if err := versionStore.Close(); err != nil {
		logging.Error("Version database close error: %v", err)
	}
	startup.LogShutdownStepComplete("Version store closed")

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Error("Metrics server shutdown error: %v", err)
		}
	}

	transcode.ShutdownVips()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
