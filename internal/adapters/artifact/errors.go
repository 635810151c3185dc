package artifact

import "errors"

// Sentinel kinds for artifact errors. All of them are fatal at startup.
var (
	ErrArtifactRead    = errors.New("artifact unreadable")
	ErrArtifactCorrupt = errors.New("artifact corrupt")
	ErrBadModelURI     = errors.New("bad model uri")
	ErrNotBinary       = errors.New("probabilities require a binary model")
)
