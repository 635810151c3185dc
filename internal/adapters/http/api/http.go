// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/tagline/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Infer classifies one raw text and returns the predicted label.
	Infer(ctx context.Context, raw string) (types.Label, error)

	// ModelVersion identifies the registry version being served.
	ModelVersion() types.ModelVersion
}

// Server wires HTTP routes for the inference API.
type Server struct {
	homeHandler    *HomeHandler
	predictHandler *PredictHandler
	metricsHandler *MetricsHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		homeHandler:    NewHomeHandler(),
		predictHandler: NewPredictHandler(deps),
		metricsHandler: NewMetricsHandler(),
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/", MetricsMiddleware(s.homeHandler.HandleHome, "/"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "/predict"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "/healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "/stats"))
	// The exposition endpoint stays unwrapped so scrapes do not count
	// themselves.
	mux.HandleFunc("/metrics", s.metricsHandler.HandleMetrics)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
