package pipeline

import (
	"context"
	"fmt"

	"github.com/okian/tagline/internal/domain/types"
	"github.com/okian/tagline/pkg/logger"
)

// Registrar is the slice of the tracking client the registration stage needs.
type Registrar interface {
	RegisterVersion(ctx context.Context, name, source, runID string) (types.ModelVersion, error)
	TransitionStage(ctx context.Context, name, version string, stage types.Stage, archiveExisting bool) (types.ModelVersion, error)
}

// RunRegistration registers the evaluated run's model as a new version of
// modelName and promotes it to Staging, archiving whatever was staged
// before. Returns the promoted version.
func RunRegistration(ctx context.Context, registrar Registrar, info ExperimentInfo, modelName string, log logger.Logger) (types.ModelVersion, error) {
	source := fmt.Sprintf("runs:/%s/%s", info.RunID, info.ModelPath)

	created, err := registrar.RegisterVersion(ctx, modelName, source, info.RunID)
	if err != nil {
		return types.ModelVersion{}, fmt.Errorf("register %s: %w", source, err)
	}
	log.Info(ctx, "model version registered",
		logger.String("model", modelName),
		logger.String("version", created.Version),
	)

	promoted, err := registrar.TransitionStage(ctx, modelName, created.Version, types.StageStaging, true)
	if err != nil {
		return types.ModelVersion{}, fmt.Errorf("promote version %s: %w", created.Version, err)
	}
	log.Info(ctx, "model version promoted",
		logger.String("model", modelName),
		logger.String("version", promoted.Version),
		logger.String("stage", string(promoted.Stage)),
	)

	return promoted, nil
}
