package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dts-converter/internal/converter"
	"dts-converter/internal/dispatch"
	"dts-converter/internal/ffprobe"
	"dts-converter/internal/filesystem"
	"dts-converter/internal/handlers"
	"dts-converter/internal/jobs"
	"dts-converter/internal/logging"
	"dts-converter/internal/memory"
	"dts-converter/internal/metrics"
	"dts-converter/internal/middleware"
	"dts-converter/internal/notify"
	"dts-converter/internal/startup"
	"dts-converter/internal/transcoder"
	"dts-converter/internal/workers"

	"github.com/gorilla/mux"
)

const (
	metricsInterval = 30 * time.Second
	shutdownGrace   = 5 * time.Second
)

// shutdownDone is closed once every component has stopped.
var shutdownDone = make(chan struct{})

// app holds the long-lived components torn down on shutdown.
type app struct {
	server        *http.Server
	metricsServer *http.Server
	collector     *metrics.Collector
	pool          *workers.Pool
	encoder       *transcoder.Transcoder
	notifier      *notify.Async
}

func main() {
	startTime := time.Now()

	memory.Configure(os.Getenv)

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	info := startup.GetBuildInfo()
	metrics.SetAppInfo(info.Version, info.Commit, info.GoVersion)
	metrics.InitializeMetrics(jobs.StateNames())
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	registry := jobs.NewRegistry()

	startup.LogToolsInit(config.FFprobePath, config.FFmpegPath)
	prober := ffprobe.New(ffprobe.Config{
		Binary:         config.FFprobePath,
		SourceCodec:    config.SourceCodec,
		DefaultBitRate: config.DefaultBitrate,
	})
	encoder := transcoder.New(config.FFmpegPath, config.EncodeTimeout)

	notifier := notify.NewAsync(notify.New(config.Notifications), config.Notifications.RequestTimeout)

	retry := filesystem.DefaultRetryConfig()
	conv := converter.New(registry, prober, encoder, notifier, converter.Config{
		TargetCodec: config.TargetCodec,
		Retry:       retry,
	})

	startup.LogWorkerPoolInit(config.Workers)
	pool := workers.NewPool(config.Workers)

	dispatcher := dispatch.New(registry, conv, pool, retry)
	h := handlers.New(dispatcher, registry, pool)

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	a := &app{
		pool:     pool,
		encoder:  encoder,
		notifier: notifier,
	}

	if config.MetricsEnabled {
		a.collector = metrics.NewCollector(registry, metricsInterval)
		a.collector.Start()
		a.metricsServer = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	a.server = &http.Server{
		Addr:         ":" + config.Port,
		Handler:      wrapHandler(router, config),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(a, config.ShutdownTimeout)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := a.server.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}

	// ListenAndServe returns as soon as Shutdown starts; wait for the rest.
	<-shutdownDone
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET", "HEAD")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET", "HEAD")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Conversions
	r.HandleFunc("/convert/", h.Convert).Methods("POST")
	r.HandleFunc("/convert", h.Convert).Methods("POST")
	r.HandleFunc("/conversions/", h.ListConversions).Methods("GET")
	r.HandleFunc("/conversions", h.ListConversions).Methods("GET")
	r.HandleFunc("/conversions/{id}", h.GetConversion).Methods("GET")

	return r
}

// wrapHandler applies the middleware chain, outermost first: compression,
// access logging, then request metrics closest to the router.
func wrapHandler(router *mux.Router, config *startup.Config) http.Handler {
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	logged := middleware.Logger(loggingConfig)(router)

	return middleware.Compression(middleware.DefaultCompressionConfig())(logged)
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	routes := http.NewServeMux()
	routes.Handle("/metrics", h.MetricsHandler())
	routes.HandleFunc("/health", h.LivenessCheck)

	return &http.Server{
		Addr:         ":" + port,
		Handler:      routes,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

func handleShutdown(a *app, timeout time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())
	shutdown(a, timeout)
}

func shutdown(a *app, timeout time.Duration) {
	defer close(shutdownDone)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			logging.Warn("Server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("HTTP server stopped")
		}
	}

	startup.LogShutdownStep("Draining worker pool")
	if err := a.pool.Shutdown(ctx); err != nil {
		logging.Warn("Worker pool did not drain: %v", err)
		startup.LogShutdownStep("Stopping running encodes")
		a.encoder.Cleanup()
		startup.LogShutdownStepComplete("Encodes stopped")
	} else {
		startup.LogShutdownStepComplete("Worker pool drained")
	}

	// Interrupted tasks still record their outcome and notify.
	grace, cancelGrace := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancelGrace()

	if err := a.pool.Shutdown(grace); err != nil {
		logging.Warn("Interrupted tasks did not finish: %v", err)
	}

	startup.LogShutdownStep("Flushing notifications")
	if err := a.notifier.Wait(grace); err != nil {
		logging.Warn("Pending notifications dropped: %v", err)
	} else {
		startup.LogShutdownStepComplete("Notifications flushed")
	}

	if a.collector != nil {
		a.collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(grace); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownComplete()
}
