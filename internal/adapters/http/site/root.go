// Package site serves the service landing route.
package site

import (
	"context"
	"encoding/json"
	"net/http"
)

// Banner is the message returned from the root path.
const Banner = "Nebulon Tier Backend is running"

// Register attaches the root route to mux. Unknown paths answer 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/", NewRootHandler().HandleRoot)
}

// RootHandler handles root path requests.
type RootHandler struct {
	body []byte
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	body, _ := json.Marshal(map[string]string{"message": Banner})
	return &RootHandler{body: append(body, '\n')}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(h.body)
}
