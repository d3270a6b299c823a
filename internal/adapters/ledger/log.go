package ledger

import (
	"context"

	"github.com/nebulon/tierd/pkg/logger"
)

// LogLedger records status changes as log lines only.
type LogLedger struct {
	log logger.Logger
}

// NewLogLedger creates a ledger that writes to log.
func NewLogLedger(log logger.Logger) *LogLedger {
	return &LogLedger{log: log}
}

// Name implements Updater.
func (l *LogLedger) Name() string { return DriverLog }

// UpdateStatus implements Updater.
func (l *LogLedger) UpdateStatus(ctx context.Context, handle string, score int64, tierID int, metadataReference string) error {
	l.log.Info(ctx, "updating agent status",
		logger.String("handle", handle),
		logger.Int64("score", score),
		logger.Int("tier_id", tierID),
		logger.String("metadata_reference", metadataReference),
	)
	return nil
}
