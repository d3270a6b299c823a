package tiercheck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// ScoreSet is an ordered set of entries. It marshals as a JSON object whose
// keys keep the slice order, which the service uses to break ties.
type ScoreSet []Entry

// MarshalJSON encodes the set as {"handle": score, ...} in order.
func (s ScoreSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Handle)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", e.Score)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Generator produces reproducible score sets for a seed.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // test data only
}

// Set returns size entries with uuid handles and scores in [0, maxScore].
// Sizes alternate with smaller sets so the single-entry and tiny cases are
// exercised too.
func (g *Generator) Set(size int, maxScore int64) (ScoreSet, error) {
	if size < 0 {
		return nil, fmt.Errorf("set size must not be negative: %d", size)
	}
	if maxScore < 0 {
		maxScore = 0
	}

	set := make(ScoreSet, size)
	for i := range set {
		id, err := uuid.NewRandomFromReader(g.rng)
		if err != nil {
			return nil, fmt.Errorf("failed to generate handle: %w", err)
		}
		set[i] = Entry{
			Handle: "agent-" + id.String(),
			Score:  g.rng.Int63n(maxScore + 1),
		}
	}
	return set, nil
}

// Sets generates n sets. Every fourth set is shrunk to a random size in
// [0, size] so edge cases show up alongside full-size sets.
func (g *Generator) Sets(n, size int, maxScore int64) ([]ScoreSet, error) {
	out := make([]ScoreSet, 0, n)
	for i := 0; i < n; i++ {
		s := size
		if i%4 == 3 && size > 0 {
			s = g.rng.Intn(size + 1)
		}
		set, err := g.Set(s, maxScore)
		if err != nil {
			return nil, err
		}
		out = append(out, set)
	}
	return out, nil
}
