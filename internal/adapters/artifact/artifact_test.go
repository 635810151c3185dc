package artifact_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/tagline/internal/adapters/artifact"
	"github.com/okian/tagline/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadEncoder(t *testing.T) {
	Convey("Given a bag-of-words encoder artifact", t, func() {
		path := writeFixture(t, "vectorizer.json",
			`{"vocabulary": {"cat": 0, "dog": 1, "bird": 2}}`)

		enc, err := artifact.LoadEncoder(path)
		So(err, ShouldBeNil)

		Convey("When transforming normalized text", func() {
			vecs := enc.Transform([]string{"cat dog cat", "unseen words only"})

			Convey("Then vectors have the fixed artifact width", func() {
				So(enc.Dim(), ShouldEqual, 3)
				So(vecs, ShouldHaveLength, 2)
				So(vecs[0], ShouldResemble, []float64{2, 1, 0})
			})

			Convey("And out-of-vocabulary tokens are dropped", func() {
				So(vecs[1], ShouldResemble, []float64{0, 0, 0})
			})
		})
	})

	Convey("Given a TF-IDF encoder artifact", t, func() {
		path := writeFixture(t, "vectorizer.json",
			`{"vocabulary": {"cat": 0, "dog": 1}, "idf": [2.0, 0.5]}`)

		enc, err := artifact.LoadEncoder(path)
		So(err, ShouldBeNil)

		Convey("When transforming text", func() {
			vecs := enc.Transform([]string{"cat cat dog"})

			Convey("Then counts are scaled by the IDF weights", func() {
				So(vecs[0], ShouldResemble, []float64{4.0, 0.5})
			})
		})
	})

	Convey("Given broken encoder artifacts", t, func() {
		Convey("When the file is missing", func() {
			_, err := artifact.LoadEncoder(filepath.Join(t.TempDir(), "nope.json"))
			So(errors.Is(err, artifact.ErrArtifactRead), ShouldBeTrue)
		})

		Convey("When the vocabulary is empty", func() {
			path := writeFixture(t, "v.json", `{"vocabulary": {}}`)
			_, err := artifact.LoadEncoder(path)
			So(errors.Is(err, artifact.ErrArtifactCorrupt), ShouldBeTrue)
		})

		Convey("When the IDF width disagrees with the vocabulary", func() {
			path := writeFixture(t, "v.json", `{"vocabulary": {"cat": 0, "dog": 1}, "idf": [1.0]}`)
			_, err := artifact.LoadEncoder(path)
			So(errors.Is(err, artifact.ErrArtifactCorrupt), ShouldBeTrue)
		})
	})
}

func TestLoadModel(t *testing.T) {
	Convey("Given a binary linear model artifact", t, func() {
		path := writeFixture(t, "model.json",
			`{"classes": ["0", "1"], "coefficients": [[1.0, -1.0]], "intercepts": [0.5]}`)

		model, err := artifact.LoadModel(path)
		So(err, ShouldBeNil)
		So(model.Dim(), ShouldEqual, 2)

		Convey("When predicting", func() {
			labels := model.Predict([][]float64{{1, 0}, {0, 2}})

			Convey("Then scores threshold at zero", func() {
				So(labels, ShouldResemble, []types.Label{"1", "0"})
			})
		})

		Convey("When asking for probabilities", func() {
			probs, err := model.PredictProba([][]float64{{1, 0}})

			Convey("Then the logistic link applies", func() {
				So(err, ShouldBeNil)
				So(probs[0], ShouldAlmostEqual, 0.8175744761936437, 1e-12)
			})
		})
	})

	Convey("Given a multiclass model artifact", t, func() {
		path := writeFixture(t, "model.json", `{
			"classes": ["neg", "neu", "pos"],
			"coefficients": [[1, 0], [0, 0], [0, 1]],
			"intercepts": [0, 0.1, 0]
		}`)

		model, err := artifact.LoadModel(path)
		So(err, ShouldBeNil)

		Convey("When predicting", func() {
			labels := model.Predict([][]float64{{2, 0}, {0, 0}, {0, 3}})

			Convey("Then the argmax class wins", func() {
				So(labels, ShouldResemble, []types.Label{"neg", "neu", "pos"})
			})
		})

		Convey("When asking for probabilities", func() {
			_, err := model.PredictProba([][]float64{{1, 1}})
			So(errors.Is(err, artifact.ErrNotBinary), ShouldBeTrue)
		})
	})

	Convey("Given broken model artifacts", t, func() {
		Convey("When coefficient rows disagree with the class count", func() {
			path := writeFixture(t, "m.json",
				`{"classes": ["a", "b", "c"], "coefficients": [[1]], "intercepts": [0]}`)
			_, err := artifact.LoadModel(path)
			So(errors.Is(err, artifact.ErrArtifactCorrupt), ShouldBeTrue)
		})

		Convey("When rows are ragged", func() {
			path := writeFixture(t, "m.json",
				`{"classes": ["a", "b", "c"], "coefficients": [[1, 2], [1], [1, 2]], "intercepts": [0, 0, 0]}`)
			_, err := artifact.LoadModel(path)
			So(errors.Is(err, artifact.ErrArtifactCorrupt), ShouldBeTrue)
		})
	})
}

// stubResolver resolves every version to a fixed location.
type stubResolver struct {
	uri string
	err error
	got [2]string
}

func (s *stubResolver) DownloadURI(_ context.Context, name, version string) (string, error) {
	s.got = [2]string{name, version}
	return s.uri, s.err
}

func TestLoadModelURI(t *testing.T) {
	Convey("Given a model artifact on disk", t, func() {
		path := writeFixture(t, "model.json",
			`{"classes": ["0", "1"], "coefficients": [[1.0]], "intercepts": [0]}`)

		Convey("When loading by plain path", func() {
			model, err := artifact.LoadModelURI(context.Background(), path, nil)
			So(err, ShouldBeNil)
			So(model, ShouldNotBeNil)
		})

		Convey("When loading by file:// URI", func() {
			model, err := artifact.LoadModelURI(context.Background(), "file://"+path, nil)
			So(err, ShouldBeNil)
			So(model, ShouldNotBeNil)
		})

		Convey("When loading a models:/ URI", func() {
			resolver := &stubResolver{uri: path}
			model, err := artifact.LoadModelURI(context.Background(), "models:/my_model/3", resolver)

			Convey("Then the registry resolves name and version", func() {
				So(err, ShouldBeNil)
				So(model, ShouldNotBeNil)
				So(resolver.got, ShouldResemble, [2]string{"my_model", "3"})
			})
		})

		Convey("When the models:/ URI is malformed", func() {
			_, err := artifact.LoadModelURI(context.Background(), "models:/only-name", &stubResolver{})
			So(errors.Is(err, artifact.ErrBadModelURI), ShouldBeTrue)
		})

		Convey("When the resolved location has an unsupported scheme", func() {
			resolver := &stubResolver{uri: "s3://bucket/model.json"}
			_, err := artifact.LoadModelURI(context.Background(), "models:/my_model/3", resolver)
			So(errors.Is(err, artifact.ErrBadModelURI), ShouldBeTrue)
		})
	})
}
