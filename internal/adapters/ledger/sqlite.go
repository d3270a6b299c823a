package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS agent_status (
		handle TEXT PRIMARY KEY,
		score INTEGER NOT NULL,
		tier_id INTEGER NOT NULL,
		metadata_reference TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_agent_status_tier ON agent_status(tier_id);
`

// SQLiteLedger keeps the latest status per handle in a local SQLite file.
// Writes are last-write-wins.
type SQLiteLedger struct {
	conn *sql.DB
	now  func() time.Time
}

// OpenSQLiteLedger opens or creates the ledger database at path.
func OpenSQLiteLedger(ctx context.Context, path string) (*SQLiteLedger, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path must not be empty", ErrConfig)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	// A single connection serialises writers and keeps :memory: databases shared.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	return &SQLiteLedger{conn: conn, now: time.Now}, nil
}

// Name implements Updater.
func (s *SQLiteLedger) Name() string { return DriverSQLite }

// UpdateStatus implements Updater.
func (s *SQLiteLedger) UpdateStatus(ctx context.Context, handle string, score int64, tierID int, metadataReference string) error {
	query := `
		INSERT INTO agent_status (handle, score, tier_id, metadata_reference, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(handle) DO UPDATE SET
			score = excluded.score,
			tier_id = excluded.tier_id,
			metadata_reference = excluded.metadata_reference,
			updated_at = excluded.updated_at
	`
	_, err := s.conn.ExecContext(ctx, query,
		handle,
		score,
		tierID,
		metadataReference,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to update status for %s: %w", handle, err)
	}
	return nil
}

// Status implements Reader.
func (s *SQLiteLedger) Status(ctx context.Context, handle string) (Record, error) {
	query := `
		SELECT handle, score, tier_id, metadata_reference, updated_at
		FROM agent_status WHERE handle = ?
	`
	var (
		rec       Record
		updatedAt string
	)
	err := s.conn.QueryRowContext(ctx, query, handle).Scan(
		&rec.Handle,
		&rec.Score,
		&rec.TierID,
		&rec.MetadataReference,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read status for %s: %w", handle, err)
	}

	rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("corrupt updated_at for %s: %w", handle, err)
	}
	return rec, nil
}

// Close closes the database connection.
func (s *SQLiteLedger) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
