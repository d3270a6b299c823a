package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nebulon/tierd/internal/domain/ranking"
	"github.com/nebulon/tierd/internal/domain/tier"
	"github.com/nebulon/tierd/pkg/metrics"
)

// TierDependencies defines what the tier handlers need from the service.
type TierDependencies interface {
	// Rank computes placements for a validated score set.
	Rank(ctx context.Context, entries []ranking.ScoreEntry) ranking.Results
	// Dispatch hands results to the ledger workers without waiting.
	Dispatch(ctx context.Context, results ranking.Results) int
	// Tiers returns the configured tier table.
	Tiers() []tier.Definition
}

// TiersHandler handles tier calculation and listing.
type TiersHandler struct {
	deps         TierDependencies
	maxEntries   int
	maxBodyBytes int64
}

// NewTiersHandler creates a new tiers handler.
func NewTiersHandler(deps TierDependencies, maxEntries int, maxBodyBytes int64) *TiersHandler {
	return &TiersHandler{deps: deps, maxEntries: maxEntries, maxBodyBytes: maxBodyBytes}
}

// HandleCalculateTiers handles POST /calculate-tiers requests. The response is
// written before ledger updates are dispatched, and dispatch is detached from
// the request so a disconnecting client does not cancel it.
func (h *TiersHandler) HandleCalculateTiers(w http.ResponseWriter, r *http.Request) {
	const op = "api.calculate_tiers"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	entries, err := decodeScores(body, h.maxEntries)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			metrics.RecordRankingRejected("body_too_large")
			err = NewKind(op, fmt.Errorf("%w: body exceeds %d bytes", ErrBadRequest, tooLarge.Limit))
		case errors.Is(err, ErrLimitExceeded):
			metrics.RecordRankingRejected("limit_exceeded")
			err = Wrap(op, err)
		default:
			metrics.RecordRankingRejected("bad_request")
			err = Wrap(op, err)
		}
		writeKindError(w, err)
		return
	}

	results := h.deps.Rank(r.Context(), entries)
	writeJSON(w, http.StatusOK, results)

	h.deps.Dispatch(context.WithoutCancel(r.Context()), results)
}

// HandleListTiers handles GET /tiers requests.
func (h *TiersHandler) HandleListTiers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, tiersResponse{Tiers: h.deps.Tiers()})
}
