// Package tiercheck drives a running tier service with generated score sets
// and checks every response against the ranking rules.
package tiercheck

import "time"

// Config holds configuration for a check run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Sets       int           // Number of score sets to submit
	SetSize    int           // Entries per score set
	MaxScore   int64         // Scores are drawn from [0, MaxScore]; small values force ties
	Workers    int           // Number of concurrent submissions
	Timeout    time.Duration // HTTP request timeout
	Seed       int64         // Generator seed; 0 picks one from the clock
	OutputFile string        // Optional file receiving the generated sets
	Verbose    bool          // Log every failed property
}

// Entry is one handle and score in submission order.
type Entry struct {
	Handle string
	Score  int64
}

// Result mirrors one value of the POST /calculate-tiers response.
type Result struct {
	Score             int64   `json:"score"`
	Rank              int     `json:"rank"`
	Percentile        float64 `json:"percentile"`
	TierID            int     `json:"tier_id"`
	TierName          string  `json:"tier_name"`
	RewardShare       float64 `json:"reward_share"`
	MetadataReference string  `json:"metadata_reference,omitempty"`
}

// Tier mirrors one entry of GET /tiers.
type Tier struct {
	ID                int     `json:"tier_id"`
	Name              string  `json:"name"`
	PercentileCeiling float64 `json:"percentile_ceiling"`
	RewardShare       float64 `json:"reward_share"`
	MetadataReference string  `json:"metadata_reference,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	SetsGenerated int
	SetsSubmitted int
	SetsPassed    int
	SetsFailed    int
	EntriesRanked int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
