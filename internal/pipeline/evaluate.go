// Package pipeline implements the offline stages that bracket serving:
// model evaluation against a held-out dataset, and registration/promotion of
// an evaluated model in the registry.
package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/okian/tagline/internal/adapters/artifact"
	"github.com/okian/tagline/internal/domain/evaluate"
	"github.com/okian/tagline/internal/domain/types"
	"github.com/okian/tagline/pkg/logger"
)

// modelArtifactPath is the artifact path the model is stored under inside a
// run, and what the registration stage appends to runs:/<run_id>/.
const modelArtifactPath = "model"

// Tracker is the slice of the tracking client the evaluation stage needs.
type Tracker interface {
	ExperimentID(ctx context.Context, name string) (string, error)
	CreateRun(ctx context.Context, experimentID string) (string, error)
	LogParam(ctx context.Context, runID, key, value string) error
	LogMetric(ctx context.Context, runID, key string, value float64) error
	FinishRun(ctx context.Context, runID, status string) error
}

// EvaluateParams configures one evaluation run.
type EvaluateParams struct {
	ModelPath      string
	TestDataPath   string
	MetricsPath    string
	InfoPath       string
	ExperimentName string
	// Positive designates the positive class for precision/recall/AUC.
	Positive types.Label
}

// ExperimentInfo is the handoff file between evaluation and registration: a
// pointer to the run whose model should be registered.
type ExperimentInfo struct {
	RunID     string `json:"run_id"`
	ModelPath string `json:"model_path"`
}

// RunEvaluation loads the local model artifact, scores it against the test
// dataset, records the run on the tracking server, and writes the metrics
// and experiment-info reports. Any failure aborts the pipeline.
func RunEvaluation(ctx context.Context, tracker Tracker, p EvaluateParams, log logger.Logger) (evaluate.Report, error) {
	model, err := artifact.LoadModel(p.ModelPath)
	if err != nil {
		return evaluate.Report{}, fmt.Errorf("load model: %w", err)
	}

	features, actual, err := loadDataset(p.TestDataPath, model.Dim())
	if err != nil {
		return evaluate.Report{}, fmt.Errorf("load test data: %w", err)
	}

	predicted := model.Predict(features)
	scores, err := model.PredictProba(features)
	if err != nil {
		return evaluate.Report{}, fmt.Errorf("score test data: %w", err)
	}

	report, err := evaluate.Evaluate(predicted, scores, actual, p.Positive)
	if err != nil {
		return evaluate.Report{}, fmt.Errorf("compute metrics: %w", err)
	}
	log.Info(ctx, "model evaluated",
		logger.Float64("accuracy", report.Accuracy),
		logger.Float64("precision", report.Precision),
		logger.Float64("recall", report.Recall),
		logger.Float64("auc", report.AUC),
	)

	experimentID, err := tracker.ExperimentID(ctx, p.ExperimentName)
	if err != nil {
		return evaluate.Report{}, fmt.Errorf("resolve experiment: %w", err)
	}
	runID, err := tracker.CreateRun(ctx, experimentID)
	if err != nil {
		return evaluate.Report{}, fmt.Errorf("create run: %w", err)
	}

	if err := tracker.LogParam(ctx, runID, "evaluated_model_path", p.ModelPath); err != nil {
		return evaluate.Report{}, fmt.Errorf("log params: %w", err)
	}
	for key, value := range map[string]float64{
		"accuracy":  report.Accuracy,
		"precision": report.Precision,
		"recall":    report.Recall,
		"auc":       report.AUC,
	} {
		if err := tracker.LogMetric(ctx, runID, key, value); err != nil {
			return evaluate.Report{}, fmt.Errorf("log metric %s: %w", key, err)
		}
	}

	if err := writeJSONFile(p.MetricsPath, report); err != nil {
		return evaluate.Report{}, err
	}
	info := ExperimentInfo{RunID: runID, ModelPath: modelArtifactPath}
	if err := writeJSONFile(p.InfoPath, info); err != nil {
		return evaluate.Report{}, err
	}

	if err := tracker.FinishRun(ctx, runID, "FINISHED"); err != nil {
		return evaluate.Report{}, fmt.Errorf("finish run: %w", err)
	}
	log.Info(ctx, "evaluation run recorded", logger.String("run_id", runID))

	return report, nil
}

// LoadExperimentInfo reads the evaluation stage's handoff file.
func LoadExperimentInfo(path string) (ExperimentInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ExperimentInfo{}, fmt.Errorf("%w: %s: %w", ErrReportRead, path, err)
	}
	var info ExperimentInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return ExperimentInfo{}, fmt.Errorf("%w: %s: %w", ErrReportRead, path, err)
	}
	if info.RunID == "" || info.ModelPath == "" {
		return ExperimentInfo{}, fmt.Errorf("%w: %s: missing run_id or model_path", ErrReportRead, path)
	}
	return info, nil
}

// loadDataset reads a CSV with a header row, featureDim numeric feature
// columns, and a trailing label column.
func loadDataset(path string, featureDim int) ([][]float64, []types.Label, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrDatasetRead, path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrDatasetRead, path, err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("%w: %s: need a header and at least one row", ErrDatasetRead, path)
	}

	// Skip the header row.
	rows = rows[1:]
	features := make([][]float64, len(rows))
	labels := make([]types.Label, len(rows))
	for i, row := range rows {
		if len(row) != featureDim+1 {
			return nil, nil, fmt.Errorf("%w: %s: row %d has %d columns, want %d",
				ErrDatasetRead, path, i+2, len(row), featureDim+1)
		}
		vec := make([]float64, featureDim)
		for j := 0; j < featureDim; j++ {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %s: row %d column %d: %w", ErrDatasetRead, path, i+2, j+1, err)
			}
			vec[j] = v
		}
		features[i] = vec
		labels[i] = types.Label(row[featureDim])
	}
	return features, labels, nil
}

// writeJSONFile writes v as indented JSON, creating parent directories.
func writeJSONFile(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrReportWrite, path, err)
		}
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReportWrite, path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReportWrite, path, err)
	}
	return nil
}
