// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Errors returned to callers wrap this package's sentinel errors.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/nebulon/tierd/internal/domain/tier"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxEntries caps the number of scores accepted per ranking request.
	MaxEntries int `koanf:"max_entries"`

	// MaxBodyBytes caps the ranking request body size.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// DispatchQueueSize bounds the in-memory ledger update queue.
	DispatchQueueSize int `koanf:"dispatch_queue_size"`

	// DispatchWorkerCount sets the number of ledger workers.
	DispatchWorkerCount int `koanf:"dispatch_worker_count"`

	// LedgerDriver selects the ledger backend: log, sqlite or http.
	LedgerDriver   string `koanf:"ledger_driver"`
	LedgerEndpoint string `koanf:"ledger_endpoint"`
	LedgerToken    string `koanf:"ledger_token"`
	// LedgerSQLitePath is the database file used by the sqlite driver.
	LedgerSQLitePath string `koanf:"ledger_sqlite_path"`
	// LedgerTimeoutMS bounds a single ledger call.
	LedgerTimeoutMS int `koanf:"ledger_timeout_ms"`

	// MetadataEnabled attaches MetadataReferences to results and updates.
	MetadataEnabled bool `koanf:"metadata_enabled"`

	// MetadataReferences maps tier id (as a string) to a metadata reference.
	MetadataReferences map[string]string `koanf:"metadata_references"`

	// Tiers is the ordered reward tier table.
	Tiers []tier.Definition `koanf:"tiers"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		MaxEntries:          100_000,
		MaxBodyBytes:        8 << 20,
		DispatchQueueSize:   100_000,
		DispatchWorkerCount: runtime.NumCPU() * 2,
		LedgerDriver:        "log",
		LedgerSQLitePath:    "data/ledger.db",
		LedgerTimeoutMS:     5_000,
		MetadataEnabled:     true,
		MetadataReferences:  tier.DefaultMetadataReferences(),
		Tiers:               tier.DefaultDefinitions(),
	}
}

// LedgerTimeout returns LedgerTimeoutMS as a duration.
func (c *Config) LedgerTimeout() time.Duration {
	return time.Duration(c.LedgerTimeoutMS) * time.Millisecond
}

// TierTable builds the immutable tier table, with metadata attached only
// when MetadataEnabled is set.
func (c *Config) TierTable() (*tier.Table, error) {
	var refs map[string]string
	if c.MetadataEnabled {
		refs = c.MetadataReferences
	}
	t, err := tier.New(c.Tiers, refs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return t, nil
}

// Validate checks field ranges and the tier table.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxEntries < 1:
		return fmt.Errorf("%w: max_entries must be positive", ErrInvalidConfig)
	case c.MaxBodyBytes < 1:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	case c.DispatchQueueSize < 1:
		return fmt.Errorf("%w: dispatch_queue_size must be positive", ErrInvalidConfig)
	case c.DispatchWorkerCount < 1:
		return fmt.Errorf("%w: dispatch_worker_count must be positive", ErrInvalidConfig)
	case c.LedgerTimeoutMS < 1:
		return fmt.Errorf("%w: ledger_timeout_ms must be positive", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	}
	_, err := c.TierTable()
	return err
}
