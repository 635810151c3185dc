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
	"github.com/okian/tagline/internal/pipeline"
	"github.com/okian/tagline/pkg/logger"
)

const defaultInfoPath = "reports/experiment_info.json"

func main() {
	infoPath := flag.String("experiment-info", defaultInfoPath, "Handoff file written by the evaluation stage")
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

	info, err := pipeline.LoadExperimentInfo(*infoPath)
	if err != nil {
		log.Error(ctx, "failed to read experiment info", logger.Error(err))
		os.Exit(1)
	}

	client := tracking.New(cfg.TrackingURI,
		tracking.WithToken(cfg.TrackingToken),
		tracking.WithTimeout(time.Duration(cfg.RequestTimeoutSec)*time.Second),
	)

	version, err := pipeline.RunRegistration(ctx, client, info, cfg.ModelName, log)
	if err != nil {
		log.Error(ctx, "registration failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info(ctx, "model registered and promoted",
		logger.String("model", version.Name),
		logger.String("version", version.Version),
		logger.String("stage", string(version.Stage)),
	)
}
