package service

import "errors"

// Sentinel kinds for service construction and inference errors.
var (
	ErrMissingDependency = errors.New("missing dependency")
	ErrDimensionMismatch = errors.New("encoder and model dimensionality differ")
	ErrNoPrediction      = errors.New("model returned no prediction")
)
