// Package selector picks which registry version of a model to serve.
//
// The policy is a strict priority cascade over lifecycle stages, not a
// scoring function: prefer the most production-vetted artifact and degrade
// to "most recent overall" only when no staged artifacts exist.
package selector

import (
	"context"
	"fmt"

	"github.com/okian/tagline/internal/domain/types"
)

// VersionSource is the slice of the registry the selector needs.
type VersionSource interface {
	// LatestVersions returns the registry's latest versions for the given
	// stages, in registry order.
	LatestVersions(ctx context.Context, name string, stages []types.Stage) ([]types.ModelVersion, error)

	// SearchVersions returns every version registered under name,
	// regardless of stage.
	SearchVersions(ctx context.Context, name string) ([]types.ModelVersion, error)
}

// Selector resolves a logical model name to a concrete version.
type Selector struct {
	source VersionSource
}

// New creates a Selector over the given registry source.
func New(source VersionSource) *Selector {
	return &Selector{source: source}
}

// stageCascade is the fixed bucket order. The set is small, so the policy
// stays an explicit sequence of guarded lookups.
var stageCascade = []types.Stage{
	types.StageProduction,
	types.StageStaging,
	types.StageNone,
}

// Select returns the version to serve for name. It walks the stage cascade
// and takes the first entry of the first non-empty bucket, preserving
// registry ordering. When every bucket is empty it falls back to the
// numerically largest version id across all versions. With zero versions it
// returns ErrNoVersions, which callers must treat as fatal at startup.
func (s *Selector) Select(ctx context.Context, name string) (types.ModelVersion, error) {
	for _, stage := range stageCascade {
		versions, err := s.source.LatestVersions(ctx, name, []types.Stage{stage})
		if err != nil {
			return types.ModelVersion{}, fmt.Errorf("query %s versions of %q: %w", stage, name, err)
		}
		if len(versions) > 0 {
			return versions[0], nil
		}
	}

	all, err := s.source.SearchVersions(ctx, name)
	if err != nil {
		return types.ModelVersion{}, fmt.Errorf("search versions of %q: %w", name, err)
	}
	if len(all) == 0 {
		return types.ModelVersion{}, fmt.Errorf("model %q: %w", name, ErrNoVersions)
	}

	best := all[0]
	for _, mv := range all[1:] {
		if mv.VersionNumber() > best.VersionNumber() {
			best = mv
		}
	}
	return best, nil
}
