// Package ledger provides the ledger updater that records each agent's tier.
//
// The dispatcher only depends on Updater. Which backend sits behind it is a
// deployment choice: a log line, a local SQLite record, or a remote HTTP
// endpoint that relays the change on-chain.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/nebulon/tierd/pkg/logger"
)

// Supported drivers.
const (
	DriverLog    = "log"
	DriverSQLite = "sqlite"
	DriverHTTP   = "http"
)

// Updater persists a tier assignment for an agent.
type Updater interface {
	UpdateStatus(ctx context.Context, handle string, score int64, tierID int, metadataReference string) error
	// Name identifies the backend in logs and metrics.
	Name() string
}

// Reader is implemented by backends that can return the last recorded status.
type Reader interface {
	Status(ctx context.Context, handle string) (Record, error)
}

// Record is the last status written for a handle.
type Record struct {
	Handle            string    `json:"handle"`
	Score             int64     `json:"score"`
	TierID            int       `json:"tier_id"`
	MetadataReference string    `json:"metadata_reference,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Config selects and configures a backend.
type Config struct {
	Driver     string
	Endpoint   string
	Token      string
	SQLitePath string
	Timeout    time.Duration
}

// New builds the Updater named by cfg.Driver.
func New(ctx context.Context, cfg Config, log logger.Logger) (Updater, error) {
	switch cfg.Driver {
	case "", DriverLog:
		return NewLogLedger(log), nil
	case DriverSQLite:
		return OpenSQLiteLedger(ctx, cfg.SQLitePath)
	case DriverHTTP:
		return NewHTTPLedger(cfg.Endpoint, WithToken(cfg.Token), WithTimeout(cfg.Timeout))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// Close releases backend resources when the updater holds any.
func Close(u Updater) error {
	if c, ok := u.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
