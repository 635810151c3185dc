// Package evaluate computes classification quality metrics for the
// evaluation pipeline.
package evaluate

import (
	"fmt"
	"sort"

	"github.com/okian/tagline/internal/domain/types"
)

// Report bundles the metrics logged to the tracking server and written to
// the metrics report file.
type Report struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	AUC       float64 `json:"auc"`
}

// Evaluate computes binary classification metrics. predicted and actual are
// the model's labels and the ground truth; scores are the model's
// positive-class probabilities, used only for AUC. positive designates which
// label counts as the positive class.
func Evaluate(predicted []types.Label, scores []float64, actual []types.Label, positive types.Label) (Report, error) {
	if len(actual) == 0 {
		return Report{}, ErrEmptyInput
	}
	if len(predicted) != len(actual) || len(scores) != len(actual) {
		return Report{}, fmt.Errorf("%w: predicted=%d scores=%d actual=%d",
			ErrLengthMismatch, len(predicted), len(scores), len(actual))
	}

	var tp, fp, fn, correct int
	for i := range actual {
		if predicted[i] == actual[i] {
			correct++
		}
		switch {
		case predicted[i] == positive && actual[i] == positive:
			tp++
		case predicted[i] == positive:
			fp++
		case actual[i] == positive:
			fn++
		}
	}

	auc, err := rankAUC(scores, actual, positive)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Accuracy:  float64(correct) / float64(len(actual)),
		Precision: ratio(tp, tp+fp),
		Recall:    ratio(tp, tp+fn),
		AUC:       auc,
	}, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// rankAUC computes ROC AUC by the rank-sum method: sort by score, assign
// average ranks to score ties, then normalize the positive-class rank sum.
func rankAUC(scores []float64, actual []types.Label, positive types.Label) (float64, error) {
	n := len(scores)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && scores[idx[j]] == scores[idx[i]] {
			j++
		}
		// Average rank across the tie run; ranks are 1-based.
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	var pos int
	var posRankSum float64
	for i, label := range actual {
		if label == positive {
			pos++
			posRankSum += ranks[i]
		}
	}
	neg := n - pos
	if pos == 0 || neg == 0 {
		return 0, fmt.Errorf("%w: positives=%d negatives=%d", ErrSingleClass, pos, neg)
	}

	return (posRankSum - float64(pos)*float64(pos+1)/2) / (float64(pos) * float64(neg)), nil
}
