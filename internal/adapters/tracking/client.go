// Package tracking is the HTTP client for the experiment-tracking and model
// registry service. It covers the slice of the REST surface this repo needs:
// version lookups for serving, run bookkeeping for evaluation, and version
// registration/promotion for the release pipeline.
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/tagline/internal/domain/types"
	"github.com/okian/tagline/pkg/metrics"
)

const (
	apiPrefix      = "/api/2.0/mlflow"
	defaultTimeout = 15 * time.Second

	// RunStatusFinished marks a run as successfully completed.
	RunStatusFinished = "FINISHED"

	errorCodeNotFound      = "RESOURCE_DOES_NOT_EXIST"
	errorCodeAlreadyExists = "RESOURCE_ALREADY_EXISTS"
)

// Client talks to a tracking server over its REST API. Credentials are
// token-based: the same token is sent as basic-auth user and password.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithToken sets the credential used for basic auth.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a reusable tracking client for the given server.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is the wire shape of a tracking server error payload.
type apiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// LatestVersions returns the latest model versions for the given stages, in
// registry order.
func (c *Client) LatestVersions(ctx context.Context, name string, stages []types.Stage) ([]types.ModelVersion, error) {
	stageNames := make([]string, len(stages))
	for i, s := range stages {
		stageNames[i] = string(s)
	}

	var out struct {
		ModelVersions []types.ModelVersion `json:"model_versions"`
	}
	err := c.post(ctx, "/registered-models/get-latest-versions", map[string]any{
		"name":   name,
		"stages": stageNames,
	}, &out)
	if err != nil {
		// A model with zero versions reads the same as a missing model.
		if isErrorCode(err, errorCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return out.ModelVersions, nil
}

// SearchVersions returns every version registered under name.
func (c *Client) SearchVersions(ctx context.Context, name string) ([]types.ModelVersion, error) {
	q := url.Values{}
	q.Set("filter", fmt.Sprintf("name='%s'", name))

	var out struct {
		ModelVersions []types.ModelVersion `json:"model_versions"`
	}
	if err := c.get(ctx, "/model-versions/search", q, &out); err != nil {
		if isErrorCode(err, errorCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return out.ModelVersions, nil
}

// DownloadURI resolves the artifact location of a specific model version.
func (c *Client) DownloadURI(ctx context.Context, name, version string) (string, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("version", version)

	var out struct {
		ArtifactURI string `json:"artifact_uri"`
	}
	if err := c.get(ctx, "/model-versions/get-download-uri", q, &out); err != nil {
		return "", err
	}
	return out.ArtifactURI, nil
}

// ExperimentID resolves an experiment by name, creating it when absent.
func (c *Client) ExperimentID(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("experiment_name", name)

	var got struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	err := c.get(ctx, "/experiments/get-by-name", q, &got)
	if err == nil {
		return got.Experiment.ExperimentID, nil
	}
	if !isErrorCode(err, errorCodeNotFound) {
		return "", err
	}

	var created struct {
		ExperimentID string `json:"experiment_id"`
	}
	if err := c.post(ctx, "/experiments/create", map[string]any{"name": name}, &created); err != nil {
		return "", err
	}
	return created.ExperimentID, nil
}

// CreateRun starts a new run under the experiment and returns its id.
func (c *Client) CreateRun(ctx context.Context, experimentID string) (string, error) {
	var out struct {
		Run struct {
			Info struct {
				RunID string `json:"run_id"`
			} `json:"info"`
		} `json:"run"`
	}
	err := c.post(ctx, "/runs/create", map[string]any{
		"experiment_id": experimentID,
		"start_time":    time.Now().UnixMilli(),
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Run.Info.RunID, nil
}

// LogMetric records one metric value on a run.
func (c *Client) LogMetric(ctx context.Context, runID, key string, value float64) error {
	return c.post(ctx, "/runs/log-metric", map[string]any{
		"run_id":    runID,
		"key":       key,
		"value":     value,
		"timestamp": time.Now().UnixMilli(),
	}, nil)
}

// LogParam records one parameter on a run.
func (c *Client) LogParam(ctx context.Context, runID, key, value string) error {
	return c.post(ctx, "/runs/log-parameter", map[string]any{
		"run_id": runID,
		"key":    key,
		"value":  value,
	}, nil)
}

// FinishRun closes a run with the given terminal status.
func (c *Client) FinishRun(ctx context.Context, runID, status string) error {
	return c.post(ctx, "/runs/update", map[string]any{
		"run_id":   runID,
		"status":   status,
		"end_time": time.Now().UnixMilli(),
	}, nil)
}

// RegisterVersion creates a new version of the named registered model from
// the given source. The registered model itself is created on first use.
func (c *Client) RegisterVersion(ctx context.Context, name, source, runID string) (types.ModelVersion, error) {
	if err := c.ensureRegisteredModel(ctx, name); err != nil {
		return types.ModelVersion{}, err
	}

	var out struct {
		ModelVersion types.ModelVersion `json:"model_version"`
	}
	err := c.post(ctx, "/model-versions/create", map[string]any{
		"name":   name,
		"source": source,
		"run_id": runID,
	}, &out)
	if err != nil {
		return types.ModelVersion{}, err
	}
	return out.ModelVersion, nil
}

// TransitionStage moves a version to the given stage, optionally archiving
// versions already in that stage.
func (c *Client) TransitionStage(ctx context.Context, name, version string, stage types.Stage, archiveExisting bool) (types.ModelVersion, error) {
	var out struct {
		ModelVersion types.ModelVersion `json:"model_version"`
	}
	err := c.post(ctx, "/model-versions/transition-stage", map[string]any{
		"name":                      name,
		"version":                   version,
		"stage":                     string(stage),
		"archive_existing_versions": archiveExisting,
	}, &out)
	if err != nil {
		return types.ModelVersion{}, err
	}
	return out.ModelVersion, nil
}

// ensureRegisteredModel creates the named registered model, tolerating the
// case where it already exists.
func (c *Client) ensureRegisteredModel(ctx context.Context, name string) error {
	err := c.post(ctx, "/registered-models/create", map[string]any{"name": name}, nil)
	if err != nil && !isErrorCode(err, errorCodeAlreadyExists) {
		return err
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	endpoint := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: new request: %w", ErrRequest, err)
	}
	return c.do(req, v)
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal payload: %w", ErrRequest, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: new request: %w", ErrRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	if c.token != "" {
		req.SetBasicAuth(c.token, c.token)
	}

	metrics.RecordRegistryQuery()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordRegistryQueryError()
		return fmt.Errorf("%w: %s %s: %w", ErrRequest, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordRegistryQueryError()
		return fmt.Errorf("%w: read body: %w", ErrDecode, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.RecordRegistryQueryError()
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.ErrorCode != "" {
			return &statusError{status: resp.StatusCode, code: ae.ErrorCode, message: ae.Message}
		}
		return &statusError{status: resp.StatusCode, message: strings.TrimSpace(string(raw))}
	}

	if v == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, req.URL.Path, err)
	}
	return nil
}
