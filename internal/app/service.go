// Package service composes the inference pipeline: normalizer, feature
// encoder, and loaded model, wired together as explicit dependencies.
package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/tagline/internal/domain/types"
	"github.com/okian/tagline/pkg/logger"
	"github.com/okian/tagline/pkg/metrics"
)

// Normalizer cleans raw request text before encoding.
type Normalizer interface {
	Normalize(raw string) string
}

// Encoder turns normalized text into fixed-width feature vectors.
type Encoder interface {
	Transform(texts []string) [][]float64
	Dim() int
}

// Model is the loaded classifier artifact.
type Model interface {
	Predict(features [][]float64) []types.Label
	Dim() int
}

// Service serves predictions from read-only resources constructed at
// startup. It holds no mutable shared state beyond counters, so concurrent
// requests need no coordination.
type Service struct {
	normalizer Normalizer
	encoder    Encoder
	model      Model
	version    types.ModelVersion
	logger     logger.Logger

	inferCount atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithNormalizer sets the text normalizer.
func WithNormalizer(n Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithEncoder sets the feature encoder.
func WithEncoder(e Encoder) Option {
	return func(s *Service) {
		if e != nil {
			s.encoder = e
		}
	}
}

// WithModel sets the loaded model.
func WithModel(m Model) Option {
	return func(s *Service) {
		if m != nil {
			s.model = m
		}
	}
}

// WithModelVersion records which registry version the model came from.
func WithModelVersion(mv types.ModelVersion) Option {
	return func(s *Service) {
		s.version = mv
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a Service and fails fast on missing or mismatched
// collaborators, so a half-loaded process never reaches serving.
func New(opts ...Option) (*Service, error) {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case s.normalizer == nil:
		return nil, fmt.Errorf("%w: normalizer", ErrMissingDependency)
	case s.encoder == nil:
		return nil, fmt.Errorf("%w: encoder", ErrMissingDependency)
	case s.model == nil:
		return nil, fmt.Errorf("%w: model", ErrMissingDependency)
	}
	if s.encoder.Dim() != s.model.Dim() {
		return nil, fmt.Errorf("%w: encoder width %d, model width %d",
			ErrDimensionMismatch, s.encoder.Dim(), s.model.Dim())
	}

	if s.logger != nil {
		s.logger.Info(context.Background(), "inference service ready",
			logger.String("model", s.version.Name),
			logger.String("version", s.version.Version),
			logger.String("stage", string(s.version.Stage)),
			logger.Int("feature_dim", s.encoder.Dim()),
		)
	}
	metrics.SetModelInfo(s.version.Name, s.version.Version, string(s.version.Stage))

	return s, nil
}

// Infer runs normalize -> encode -> predict and returns the label for the
// single input text. Deterministic for a fixed model, encoder, and input.
func (s *Service) Infer(ctx context.Context, raw string) (types.Label, error) {
	start := time.Now()

	normalized := s.normalizer.Normalize(raw)
	features := s.encoder.Transform([]string{normalized})
	labels := s.model.Predict(features)
	if len(labels) == 0 {
		metrics.RecordInferenceError()
		return "", ErrNoPrediction
	}
	label := labels[0]

	s.inferCount.Add(1)
	metrics.RecordPrediction(string(label))
	metrics.RecordInferenceLatency(time.Since(start).Seconds())

	if s.logger != nil {
		s.logger.Debug(ctx, "prediction served",
			logger.String("label", string(label)),
			logger.Duration("took", time.Since(start)),
		)
	}

	return label, nil
}

// ModelVersion returns the registry version being served.
func (s *Service) ModelVersion() types.ModelVersion { return s.version }

// GetStats returns current service statistics.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"modelName":    s.version.Name,
		"modelVersion": s.version.Version,
		"modelStage":   string(s.version.Stage),
		"featureDim":   s.encoder.Dim(),
		"predictions":  s.inferCount.Load(),
	}
}
