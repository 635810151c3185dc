// Package types contains common types used across the application
package types

import "strconv"

// Stage is a model version lifecycle tag in the registry. Versions move
// forward through the promotion workflow (None -> Staging -> Production),
// but consumers must tolerate any value the registry returns.
type Stage string

// Known lifecycle stages.
const (
	StageProduction Stage = "Production"
	StageStaging    Stage = "Staging"
	StageNone       Stage = "None"
	StageArchived   Stage = "Archived"
)

// ModelVersion is one registry entry for a named model. Versions are
// immutable once created; only the stage tag moves.
type ModelVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Stage   Stage  `json:"current_stage"`
	Source  string `json:"source,omitempty"`
	RunID   string `json:"run_id,omitempty"`
}

// VersionNumber parses the version id as an integer. Registries issue
// numeric ids; a non-numeric id sorts below every numeric one.
func (mv ModelVersion) VersionNumber() int {
	n, err := strconv.Atoi(mv.Version)
	if err != nil {
		return -1
	}
	return n
}

// Label is the categorical model output, opaque to this service.
type Label string
