// Package tier defines the immutable reward tier table.
//
// A Table is built once from configuration and shared read-only by every
// ranking call.
package tier

import (
	"fmt"
	"strconv"
)

// Count is the fixed number of tiers in a table.
const Count = 10

// MaxCeiling is the percentile ceiling of the catch-all last tier.
const MaxCeiling = 100.0

// Definition describes one reward band.
type Definition struct {
	ID                int     `json:"tier_id" koanf:"id"`
	Name              string  `json:"name" koanf:"name"`
	PercentileCeiling float64 `json:"percentile_ceiling" koanf:"percentile_ceiling"`
	RewardShare       float64 `json:"reward_share" koanf:"reward_share"`
	MetadataReference string  `json:"metadata_reference,omitempty" koanf:"-"`
}

// Table is an ordered, validated set of tier definitions.
type Table struct {
	defs        []Definition
	hasMetadata bool
}

// New validates defs and attaches the optional metadata mapping (tier id as
// decimal string -> reference). A nil or empty mapping disables metadata.
func New(defs []Definition, metadata map[string]string) (*Table, error) {
	if len(defs) != Count {
		return nil, fmt.Errorf("%w: want %d tiers, got %d", ErrInvalidTable, Count, len(defs))
	}

	out := make([]Definition, len(defs))
	prev := 0.0
	for i, d := range defs {
		if d.ID != i+1 {
			return nil, fmt.Errorf("%w: tier at position %d has id %d", ErrInvalidTable, i+1, d.ID)
		}
		if d.Name == "" {
			return nil, fmt.Errorf("%w: tier %d has no name", ErrInvalidTable, d.ID)
		}
		if d.PercentileCeiling <= prev || d.PercentileCeiling > MaxCeiling {
			return nil, fmt.Errorf("%w: tier %d ceiling %g must be in (%g, %g]",
				ErrInvalidTable, d.ID, d.PercentileCeiling, prev, MaxCeiling)
		}
		if d.RewardShare < 0 {
			return nil, fmt.Errorf("%w: tier %d has negative reward share", ErrInvalidTable, d.ID)
		}
		prev = d.PercentileCeiling
		d.MetadataReference = ""
		out[i] = d
	}
	if out[Count-1].PercentileCeiling != MaxCeiling {
		return nil, fmt.Errorf("%w: last tier ceiling must be %g", ErrInvalidTable, MaxCeiling)
	}

	t := &Table{defs: out}
	if len(metadata) == 0 {
		return t, nil
	}

	for key, ref := range metadata {
		id, err := strconv.Atoi(key)
		if err != nil || id < 1 || id > Count {
			return nil, fmt.Errorf("%w: unknown tier id %q", ErrInvalidMetadata, key)
		}
		t.defs[id-1].MetadataReference = ref
	}
	for _, d := range t.defs {
		if d.MetadataReference == "" {
			return nil, fmt.Errorf("%w: tier %d has no reference", ErrInvalidMetadata, d.ID)
		}
	}
	t.hasMetadata = true
	return t, nil
}

// Select returns the first tier whose ceiling is >= percentile. Percentiles
// above every ceiling fall back to the last tier.
func (t *Table) Select(percentile float64) Definition {
	for _, d := range t.defs {
		if d.PercentileCeiling >= percentile {
			return d
		}
	}
	return t.defs[len(t.defs)-1]
}

// HasMetadata reports whether a metadata mapping is configured.
func (t *Table) HasMetadata() bool { return t.hasMetadata }

// Definitions returns a copy of the tier definitions in id order.
func (t *Table) Definitions() []Definition {
	out := make([]Definition, len(t.defs))
	copy(out, t.defs)
	return out
}

// Get returns the definition for id.
func (t *Table) Get(id int) (Definition, bool) {
	if id < 1 || id > len(t.defs) {
		return Definition{}, false
	}
	return t.defs[id-1], true
}
