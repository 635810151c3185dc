package pipeline

import "errors"

// Sentinel kinds for pipeline errors.
var (
	ErrDatasetRead = errors.New("test dataset unreadable")
	ErrReportRead  = errors.New("report file unreadable")
	ErrReportWrite = errors.New("report file write failed")
)
