package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Config for the embedded ledger database.
type Config struct {
	Path        string
	DialTimeout time.Duration // default 3s
}

const schema = `
CREATE TABLE IF NOT EXISTS process_job (
	id            TEXT PRIMARY KEY,
	input_file    TEXT NOT NULL,
	category      TEXT NOT NULL,
	mode          TEXT NOT NULL,
	processor     TEXT NOT NULL DEFAULT '',
	output_file   TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	runtime_ms    INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL,
	finished_at   TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_process_job_created ON process_job (created_at DESC);
`

// Open creates (or opens) the sqlite ledger and applies the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	logger.Info("opening ledger database", "path", cfg.Path)

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("ledger database ready")
	return db, nil
}

// Close closes the ledger database gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close ledger database", "error", err)
		return
	}
	logger.Info("ledger database closed")
}
