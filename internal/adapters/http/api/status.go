package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nebulon/tierd/internal/adapters/ledger"
)

// StatusDependencies defines the interface for ledger status lookups.
type StatusDependencies interface {
	Status(ctx context.Context, handle string) (ledger.Record, error)
}

// StatusHandler handles ledger status requests.
type StatusHandler struct {
	deps StatusDependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps StatusDependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// HandleGetStatus handles GET /status/{handle} requests.
func (h *StatusHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_status"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	handle := strings.TrimPrefix(r.URL.Path, "/status/")
	if strings.TrimSpace(handle) == "" || strings.Contains(handle, "/") {
		writeKindError(w, NewKind(op, ErrBadRequest))
		return
	}

	rec, err := h.deps.Status(r.Context(), handle)
	if err != nil {
		writeKindError(w, WrapKind(op, kindOf(err), err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// kindOf classifies dependency errors that carry no API kind.
func kindOf(err error) error {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ledger.ErrReadback):
		return ErrUnsupported
	default:
		return nil
	}
}
