package tiercheck

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

const percentileTolerance = 1e-9

// Verify checks results for set against the tier table and returns every
// violated property. An empty slice means the response is correct.
func Verify(set ScoreSet, results map[string]Result, tiers []Tier) []error {
	var errs []error
	n := len(set)

	if len(results) != n {
		errs = append(errs, fmt.Errorf("got %d results for %d entries", len(results), n))
	}
	if n == 0 {
		return errs
	}

	expected := expectedRanks(set)

	seenRanks := make([]bool, n+1)
	rankSum := 0
	for _, e := range set {
		r, ok := results[e.Handle]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: missing from response", e.Handle))
			continue
		}
		if r.Score != e.Score {
			errs = append(errs, fmt.Errorf("%s: score %d, submitted %d", e.Handle, r.Score, e.Score))
		}
		if r.Rank < 1 || r.Rank > n {
			errs = append(errs, fmt.Errorf("%s: rank %d out of [1, %d]", e.Handle, r.Rank, n))
			continue
		}
		if seenRanks[r.Rank] {
			errs = append(errs, fmt.Errorf("%s: rank %d assigned twice", e.Handle, r.Rank))
		}
		seenRanks[r.Rank] = true
		rankSum += r.Rank

		if want := expected[e.Handle]; r.Rank != want {
			errs = append(errs, fmt.Errorf("%s: rank %d, want %d", e.Handle, r.Rank, want))
		}

		wantPct := float64(r.Rank*100) / float64(n)
		if math.Abs(r.Percentile-wantPct) > percentileTolerance {
			errs = append(errs, fmt.Errorf("%s: percentile %g, want %g", e.Handle, r.Percentile, wantPct))
		}

		want := selectTier(tiers, wantPct)
		if r.TierID != want.ID || r.TierName != want.Name || r.RewardShare != want.RewardShare {
			errs = append(errs, fmt.Errorf("%s: tier %d %q, want %d %q", e.Handle, r.TierID, r.TierName, want.ID, want.Name))
		}
		if r.MetadataReference != want.MetadataReference {
			errs = append(errs, fmt.Errorf("%s: metadata %q, want %q", e.Handle, r.MetadataReference, want.MetadataReference))
		}
	}

	if want := n * (n + 1) / 2; rankSum != want && len(errs) == 0 {
		errs = append(errs, fmt.Errorf("rank sum %d, want %d", rankSum, want))
	}
	return errs
}

// expectedRanks orders by score descending, submission order among equals.
func expectedRanks(set ScoreSet) map[string]int {
	sorted := slices.Clone(set)
	slices.SortStableFunc(sorted, func(a, b Entry) int { return cmp.Compare(b.Score, a.Score) })
	out := make(map[string]int, len(sorted))
	for i, e := range sorted {
		out[e.Handle] = i + 1
	}
	return out
}

func selectTier(tiers []Tier, pct float64) Tier {
	for _, t := range tiers {
		if t.PercentileCeiling >= pct {
			return t
		}
	}
	if len(tiers) == 0 {
		return Tier{}
	}
	return tiers[len(tiers)-1]
}
