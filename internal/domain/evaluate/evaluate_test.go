package evaluate_test

import (
	"errors"
	"testing"

	"github.com/okian/tagline/internal/domain/evaluate"
	"github.com/okian/tagline/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func labels(vals ...string) []types.Label {
	out := make([]types.Label, len(vals))
	for i, v := range vals {
		out[i] = types.Label(v)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	const positive = types.Label("1")

	Convey("Given a mixed batch of predictions", t, func() {
		actual := labels("1", "0", "1", "0")
		predicted := labels("1", "0", "0", "1")
		scores := []float64{0.9, 0.2, 0.4, 0.6}

		Convey("When evaluating", func() {
			report, err := evaluate.Evaluate(predicted, scores, actual, positive)

			Convey("Then the metrics match the hand-computed values", func() {
				So(err, ShouldBeNil)
				So(report.Accuracy, ShouldEqual, 0.5)
				So(report.Precision, ShouldEqual, 0.5)
				So(report.Recall, ShouldEqual, 0.5)
				So(report.AUC, ShouldEqual, 0.75)
			})
		})
	})

	Convey("Given perfectly separated scores", t, func() {
		actual := labels("1", "1", "0", "0")
		predicted := labels("1", "1", "0", "0")
		scores := []float64{0.9, 0.8, 0.1, 0.2}

		Convey("When evaluating", func() {
			report, err := evaluate.Evaluate(predicted, scores, actual, positive)

			So(err, ShouldBeNil)
			So(report.Accuracy, ShouldEqual, 1.0)
			So(report.Precision, ShouldEqual, 1.0)
			So(report.Recall, ShouldEqual, 1.0)
			So(report.AUC, ShouldEqual, 1.0)
		})
	})

	Convey("Given uniformly tied scores", t, func() {
		actual := labels("1", "0", "1", "0")
		predicted := labels("1", "1", "1", "1")
		scores := []float64{0.5, 0.5, 0.5, 0.5}

		Convey("When evaluating", func() {
			report, err := evaluate.Evaluate(predicted, scores, actual, positive)

			Convey("Then tied ranks average out to a coin-flip AUC", func() {
				So(err, ShouldBeNil)
				So(report.AUC, ShouldEqual, 0.5)
				So(report.Recall, ShouldEqual, 1.0)
				So(report.Precision, ShouldEqual, 0.5)
			})
		})
	})

	Convey("Given no positive predictions", t, func() {
		actual := labels("1", "0")
		predicted := labels("0", "0")
		scores := []float64{0.1, 0.2}

		Convey("When evaluating", func() {
			report, err := evaluate.Evaluate(predicted, scores, actual, positive)

			Convey("Then precision degrades to zero instead of dividing by zero", func() {
				So(err, ShouldBeNil)
				So(report.Precision, ShouldEqual, 0)
				So(report.Recall, ShouldEqual, 0)
			})
		})
	})

	Convey("Given degenerate inputs", t, func() {
		Convey("When the batch is empty", func() {
			_, err := evaluate.Evaluate(nil, nil, nil, positive)
			So(errors.Is(err, evaluate.ErrEmptyInput), ShouldBeTrue)
		})

		Convey("When slice lengths disagree", func() {
			_, err := evaluate.Evaluate(labels("1"), []float64{0.5, 0.6}, labels("1", "0"), positive)
			So(errors.Is(err, evaluate.ErrLengthMismatch), ShouldBeTrue)
		})

		Convey("When the ground truth has a single class", func() {
			_, err := evaluate.Evaluate(labels("1", "1"), []float64{0.5, 0.6}, labels("1", "1"), positive)
			So(errors.Is(err, evaluate.ErrSingleClass), ShouldBeTrue)
		})
	})
}
