package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"os"
	"strings"

	"github.com/okian/tagline/internal/domain/types"
)

// Model is a serialized linear classifier. It exposes the predict capability
// the inference handler consumes and a positive-class probability used by
// the evaluation pipeline. Read-only after load.
type Model struct {
	classes      []types.Label
	coefficients [][]float64
	intercepts   []float64
	dim          int
}

// modelArtifact is the wire shape of the model file. Binary models carry a
// single coefficient row (positive class = classes[1]); multiclass models
// carry one row per class.
type modelArtifact struct {
	Classes      []string    `json:"classes"`
	Coefficients [][]float64 `json:"coefficients"`
	Intercepts   []float64   `json:"intercepts"`
}

// LoadModel reads and validates a model artifact from a local path.
func LoadModel(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: model %s: %w", ErrArtifactRead, path, err)
	}

	var art modelArtifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("%w: model %s: %w", ErrArtifactCorrupt, path, err)
	}
	if len(art.Classes) < 2 {
		return nil, fmt.Errorf("%w: model %s: need at least two classes", ErrArtifactCorrupt, path)
	}

	wantRows := len(art.Classes)
	if len(art.Classes) == 2 {
		wantRows = 1
	}
	if len(art.Coefficients) != wantRows || len(art.Intercepts) != wantRows {
		return nil, fmt.Errorf("%w: model %s: %d classes need %d coefficient rows, got %d rows and %d intercepts",
			ErrArtifactCorrupt, path, len(art.Classes), wantRows, len(art.Coefficients), len(art.Intercepts))
	}

	dim := len(art.Coefficients[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: model %s: empty coefficient row", ErrArtifactCorrupt, path)
	}
	for i, row := range art.Coefficients {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: model %s: coefficient row %d has width %d, want %d",
				ErrArtifactCorrupt, path, i, len(row), dim)
		}
	}

	classes := make([]types.Label, len(art.Classes))
	for i, c := range art.Classes {
		classes[i] = types.Label(c)
	}

	return &Model{
		classes:      classes,
		coefficients: art.Coefficients,
		intercepts:   art.Intercepts,
		dim:          dim,
	}, nil
}

// Dim returns the feature width the model expects.
func (m *Model) Dim() int { return m.dim }

// Classes returns the label set in artifact order.
func (m *Model) Classes() []types.Label { return m.classes }

// Predict maps each feature vector to a label. Binary models threshold the
// single decision score at zero; multiclass models take the argmax row.
func (m *Model) Predict(features [][]float64) []types.Label {
	out := make([]types.Label, len(features))
	for i, vec := range features {
		if len(m.coefficients) == 1 {
			if m.score(0, vec) >= 0 {
				out[i] = m.classes[1]
			} else {
				out[i] = m.classes[0]
			}
			continue
		}
		best, bestScore := 0, math.Inf(-1)
		for row := range m.coefficients {
			if s := m.score(row, vec); s > bestScore {
				best, bestScore = row, s
			}
		}
		out[i] = m.classes[best]
	}
	return out
}

// PredictProba returns the positive-class probability for binary models via
// the logistic link. Multiclass models have no single positive class.
func (m *Model) PredictProba(features [][]float64) ([]float64, error) {
	if len(m.coefficients) != 1 {
		return nil, fmt.Errorf("%w: %d classes", ErrNotBinary, len(m.classes))
	}
	out := make([]float64, len(features))
	for i, vec := range features {
		out[i] = 1 / (1 + math.Exp(-m.score(0, vec)))
	}
	return out, nil
}

func (m *Model) score(row int, vec []float64) float64 {
	s := m.intercepts[row]
	coef := m.coefficients[row]
	n := len(vec)
	if len(coef) < n {
		n = len(coef)
	}
	for j := 0; j < n; j++ {
		s += coef[j] * vec[j]
	}
	return s
}

// URIResolver resolves a registry model version to its artifact location.
type URIResolver interface {
	DownloadURI(ctx context.Context, name, version string) (string, error)
}

// LoadModelURI loads a model from a URI. Supported forms: a plain local
// path, file://, and models:/<name>/<version> resolved through the registry.
func LoadModelURI(ctx context.Context, uri string, resolver URIResolver) (*Model, error) {
	switch {
	case strings.HasPrefix(uri, "models:/"):
		rest := strings.TrimPrefix(uri, "models:/")
		name, version, ok := strings.Cut(rest, "/")
		if !ok || name == "" || version == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadModelURI, uri)
		}
		if resolver == nil {
			return nil, fmt.Errorf("%w: no registry to resolve %q", ErrBadModelURI, uri)
		}
		resolved, err := resolver.DownloadURI(ctx, name, version)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", uri, err)
		}
		return loadModelLocation(resolved)
	default:
		return loadModelLocation(uri)
	}
}

func loadModelLocation(location string) (*Model, error) {
	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrBadModelURI, location, err)
		}
		return LoadModel(u.Path)
	}
	if strings.Contains(location, "://") {
		return nil, fmt.Errorf("%w: unsupported scheme in %q", ErrBadModelURI, location)
	}
	return LoadModel(location)
}
