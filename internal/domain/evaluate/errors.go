package evaluate

import "errors"

// Sentinel kinds for evaluation errors.
var (
	ErrEmptyInput     = errors.New("no samples to evaluate")
	ErrLengthMismatch = errors.New("prediction and label lengths differ")
	ErrSingleClass    = errors.New("auc undefined with a single class")
)
