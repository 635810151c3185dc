// Package api declares HTTP contracts and route registration helpers.
package api

import (
	_ "embed"
	"html/template"
	"net/http"
)

//go:embed templates/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// homePage is the template payload for the classification form.
type homePage struct {
	HasResult bool
	Result    string
}

// HomeHandler serves the classification form.
type HomeHandler struct{}

// NewHomeHandler creates a new home handler.
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// HandleHome handles GET / requests.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	renderHome(w, homePage{})
}

func renderHome(w http.ResponseWriter, page homePage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
