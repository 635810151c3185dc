// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// predictResponse is the JSON shape returned to API clients.
type predictResponse struct {
	Prediction string `json:"prediction"`
}

// PredictHandler handles inference requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests. The form field "text"
// carries the raw input; a missing field is a caller error, never an
// inference failure.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if !r.PostForm.Has("text") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingText)
		return
	}

	label, err := h.deps.Infer(r.Context(), r.PostForm.Get("text"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, predictResponse{Prediction: string(label)})
		return
	}
	renderHome(w, homePage{HasResult: true, Result: string(label)})
}

// wantsJSON reports whether the client asked for a JSON body instead of the
// rendered page.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
