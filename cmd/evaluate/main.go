package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/tagline/internal/adapters/tracking"
	"github.com/okian/tagline/internal/config"
	"github.com/okian/tagline/internal/domain/types"
	"github.com/okian/tagline/internal/pipeline"
	"github.com/okian/tagline/pkg/logger"
)

// Default pipeline paths.
const (
	defaultModelPath   = "models/model.json"
	defaultTestData    = "data/processed/test_bow.csv"
	defaultMetricsPath = "reports/metrics.json"
	defaultInfoPath    = "reports/experiment_info.json"
	defaultPositive    = "1"
)

func main() {
	var (
		modelPath   = flag.String("model", defaultModelPath, "Path to the trained model artifact")
		testData    = flag.String("test-data", defaultTestData, "Path to the encoded test dataset (CSV)")
		metricsPath = flag.String("metrics-output", defaultMetricsPath, "Where to write the metrics report")
		infoPath    = flag.String("experiment-info-output", defaultInfoPath, "Where to write the experiment handoff file")
		positive    = flag.String("positive", defaultPositive, "Label treated as the positive class")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if cfg.TrackingURI == "" || cfg.TrackingToken == "" {
		log.Error(ctx, "tracking_uri and tracking_token are required")
		os.Exit(1)
	}

	client := tracking.New(cfg.TrackingURI,
		tracking.WithToken(cfg.TrackingToken),
		tracking.WithTimeout(time.Duration(cfg.RequestTimeoutSec)*time.Second),
	)

	params := pipeline.EvaluateParams{
		ModelPath:      *modelPath,
		TestDataPath:   *testData,
		MetricsPath:    *metricsPath,
		InfoPath:       *infoPath,
		ExperimentName: cfg.ExperimentName,
		Positive:       types.Label(*positive),
	}

	report, err := pipeline.RunEvaluation(ctx, client, params, log)
	if err != nil {
		log.Error(ctx, "evaluation failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info(ctx, "evaluation complete",
		logger.Float64("accuracy", report.Accuracy),
		logger.String("metrics", *metricsPath),
		logger.String("experiment_info", *infoPath),
	)
}
