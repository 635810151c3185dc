// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and environment variables.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration for the serving binary and the
// pipeline commands.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// TrackingURI is the base URL of the experiment-tracking/registry server.
	TrackingURI string `koanf:"tracking_uri"`

	// TrackingToken authenticates against the tracking server. Commands that
	// write to the registry fail at startup without it.
	TrackingToken string `koanf:"tracking_token"`

	// ModelName is the logical registered-model name to serve.
	ModelName string `koanf:"model_name"`

	// ExperimentName groups evaluation runs on the tracking server.
	ExperimentName string `koanf:"experiment_name"`

	// EncoderPath points at the local feature-encoder artifact.
	EncoderPath string `koanf:"encoder_path"`

	// RequestTimeoutSec bounds outbound tracking requests.
	RequestTimeoutSec int `koanf:"request_timeout_sec"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":5000",
		TrackingURI:       "",
		ModelName:         "my_model",
		ExperimentName:    "pipeline-evaluation",
		EncoderPath:       "models/vectorizer.json",
		RequestTimeoutSec: 15,
	}
}
