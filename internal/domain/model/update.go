// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/nebulon/tierd/internal/domain/ranking"
)

// LedgerUpdate is one pending on-chain status change handed from the
// dispatcher to the worker pool.
type LedgerUpdate struct {
	ID                string    // unique id for log correlation
	Handle            string    // agent handle
	Score             int64     // score the tier was computed from
	TierID            int       // assigned tier
	MetadataReference string    // tier metadata reference, empty when unconfigured
	EnqueuedAt        time.Time // when the dispatcher accepted the update
}

// NewLedgerUpdate builds the update for a ranking result.
func NewLedgerUpdate(r ranking.Result, now time.Time) LedgerUpdate { //nolint:gocritic // hugeParam: Result is read-only
	return LedgerUpdate{
		ID:                uuid.NewString(),
		Handle:            r.Handle,
		Score:             r.Score,
		TierID:            r.TierID,
		MetadataReference: r.MetadataReference,
		EnqueuedAt:        now,
	}
}
