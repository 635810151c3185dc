package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/tagline/internal/adapters/artifact"
	"github.com/okian/tagline/internal/adapters/http/api"
	"github.com/okian/tagline/internal/adapters/tracking"
	service "github.com/okian/tagline/internal/app"
	"github.com/okian/tagline/internal/config"
	"github.com/okian/tagline/internal/domain/normalize"
	"github.com/okian/tagline/internal/domain/selector"
	"github.com/okian/tagline/pkg/logger"
	"github.com/okian/tagline/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Every startup step below is fatal on failure: no model, no service.
	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "startup failed", logger.Error(err))
		os.Exit(1)
	}

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// buildService resolves the model version from the registry, loads the model
// and encoder artifacts, and assembles the inference service.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, error) {
	if cfg.TrackingURI == "" {
		return nil, fmt.Errorf("tracking_uri is required to resolve the model")
	}

	client := tracking.New(cfg.TrackingURI,
		tracking.WithToken(cfg.TrackingToken),
		tracking.WithTimeout(time.Duration(cfg.RequestTimeoutSec)*time.Second),
	)

	version, err := selector.New(client).Select(ctx, cfg.ModelName)
	if err != nil {
		return nil, fmt.Errorf("select model version: %w", err)
	}
	log.Info(ctx, "resolved model version",
		logger.String("model", version.Name),
		logger.String("version", version.Version),
		logger.String("stage", string(version.Stage)),
	)

	modelURI := fmt.Sprintf("models:/%s/%s", version.Name, version.Version)
	model, err := artifact.LoadModelURI(ctx, modelURI, client)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelURI, err)
	}

	encoder, err := artifact.LoadEncoder(cfg.EncoderPath)
	if err != nil {
		return nil, fmt.Errorf("load encoder %s: %w", cfg.EncoderPath, err)
	}

	lemmatizer, err := normalize.NewEnglishLemmatizer()
	if err != nil {
		return nil, fmt.Errorf("load lemmatizer: %w", err)
	}

	return service.New(
		service.WithLogger(log),
		service.WithNormalizer(normalize.New(normalize.WithLemmatizer(lemmatizer))),
		service.WithEncoder(encoder),
		service.WithModel(model),
		service.WithModelVersion(version),
	)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Average GC pause over the process lifetime.
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
