// Package ranking turns agent scores into percentile ranks and reward tiers.
//
// Rank is a pure function of its inputs: it holds no state, performs no I/O
// and never fails on validated input.
package ranking

import (
	"bytes"
	"cmp"
	"encoding/json"
	"slices"

	"github.com/nebulon/tierd/internal/domain/tier"
)

// ScoreEntry is a single agent's score as submitted.
type ScoreEntry struct {
	Handle string
	Score  int64
}

// Result is the computed placement of one agent.
type Result struct {
	Handle            string  `json:"-"`
	Score             int64   `json:"score"`
	Rank              int     `json:"rank"`
	Percentile        float64 `json:"percentile"`
	TierID            int     `json:"tier_id"`
	TierName          string  `json:"tier_name"`
	RewardShare       float64 `json:"reward_share"`
	MetadataReference string  `json:"metadata_reference,omitempty"`
}

// Results holds placements in rank order.
type Results []Result

// Rank orders entries by score descending, keeping input order between equal
// scores, and assigns each a distinct 1-based rank, a percentile of
// rank/N*100 and the first tier whose ceiling is >= that percentile.
func Rank(entries []ScoreEntry, table *tier.Table) Results {
	n := len(entries)
	if n == 0 {
		return Results{}
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b ScoreEntry) int {
		return cmp.Compare(b.Score, a.Score)
	})

	out := make(Results, n)
	for i, e := range sorted {
		rank := i + 1
		pct := Percentile(rank, n)
		def := table.Select(pct)

		r := Result{
			Handle:      e.Handle,
			Score:       e.Score,
			Rank:        rank,
			Percentile:  pct,
			TierID:      def.ID,
			TierName:    def.Name,
			RewardShare: def.RewardShare,
		}
		if table.HasMetadata() {
			r.MetadataReference = def.MetadataReference
		}
		out[i] = r
	}
	return out
}

// Percentile returns rank/total*100. The multiplication happens first so
// percentiles that are whole numbers come out exact and compare equal to a
// matching tier ceiling.
func Percentile(rank, total int) float64 {
	return float64(rank*100) / float64(total)
}

// Index maps each handle to its result.
func (rs Results) Index() map[string]Result {
	m := make(map[string]Result, len(rs))
	for _, r := range rs {
		m[r.Handle] = r
	}
	return m
}

// MarshalJSON encodes results as an object keyed by handle, in rank order.
func (rs Results) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range rs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Handle)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
