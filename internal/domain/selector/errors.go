package selector

import "errors"

// Sentinel kinds for selection errors.
var (
	ErrNoVersions = errors.New("no registered versions")
)
