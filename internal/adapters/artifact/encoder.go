// Package artifact loads the serialized model and feature-encoder
// collaborators. Both load exactly once at process start; a failure here is
// fatal before the service ever accepts a request.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Encoder is a bag-of-words/TF-IDF feature encoder with a fixed vocabulary.
// Dimensionality is fixed by the artifact; out-of-vocabulary tokens are
// dropped. Instances are read-only after load and safe for concurrent use.
type Encoder struct {
	vocabulary map[string]int
	idf        []float64
	dim        int
}

// encoderArtifact is the wire shape of the encoder file.
type encoderArtifact struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf,omitempty"`
}

// LoadEncoder reads and validates an encoder artifact from a local path.
func LoadEncoder(path string) (*Encoder, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: encoder %s: %w", ErrArtifactRead, path, err)
	}

	var art encoderArtifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("%w: encoder %s: %w", ErrArtifactCorrupt, path, err)
	}
	if len(art.Vocabulary) == 0 {
		return nil, fmt.Errorf("%w: encoder %s: empty vocabulary", ErrArtifactCorrupt, path)
	}

	dim := 0
	for term, idx := range art.Vocabulary {
		if idx < 0 {
			return nil, fmt.Errorf("%w: encoder %s: negative index for %q", ErrArtifactCorrupt, path, term)
		}
		if idx+1 > dim {
			dim = idx + 1
		}
	}
	if len(art.IDF) > 0 && len(art.IDF) != dim {
		return nil, fmt.Errorf("%w: encoder %s: idf length %d does not match dimensionality %d",
			ErrArtifactCorrupt, path, len(art.IDF), dim)
	}

	return &Encoder{vocabulary: art.Vocabulary, idf: art.IDF, dim: dim}, nil
}

// Dim returns the fixed width of encoded feature vectors.
func (e *Encoder) Dim() int { return e.dim }

// Transform encodes normalized texts into fixed-width numeric vectors:
// token counts, scaled by IDF weights when the artifact carries them.
func (e *Encoder) Transform(texts []string) [][]float64 {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, e.dim)
		for _, token := range strings.Fields(text) {
			if idx, ok := e.vocabulary[token]; ok {
				vec[idx]++
			}
		}
		if len(e.idf) > 0 {
			for j := range vec {
				vec[j] *= e.idf[j]
			}
		}
		out[i] = vec
	}
	return out
}
