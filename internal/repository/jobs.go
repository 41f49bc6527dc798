package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shortcut-bridge/constants"
)

// Job is one row in the processing ledger: a single processing request from
// start to terminal state.
type Job struct {
	ID           uuid.UUID
	InputFile    string
	Category     constants.FileCategory
	Mode         string
	Processor    string
	OutputFile   string
	Status       constants.JobStatus
	ErrorMessage string
	RuntimeMS    int64
	CreatedAt    time.Time
	FinishedAt   *time.Time
}

type JobStore interface {
	Start(ctx context.Context, inputFile string, category constants.FileCategory, mode string) (uuid.UUID, error)
	FinishOK(ctx context.Context, id uuid.UUID, processor, outputFile string, runtimeMS int64) error
	FinishFailure(ctx context.Context, id uuid.UUID, message string) error
	Recent(ctx context.Context, limit int) ([]Job, error)
}

type jobStore struct {
	db  *sql.DB
	log *slog.Logger
}

func NewJobStore(db *sql.DB, log *slog.Logger) JobStore {
	if log == nil {
		log = slog.Default()
	}
	return &jobStore{db: db, log: log}
}

func (s *jobStore) Start(ctx context.Context, inputFile string, category constants.FileCategory, mode string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO process_job (id, input_file, category, mode, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), inputFile, string(category), mode, string(constants.JobStatusRunning), time.Now().UTC(),
	)
	if err != nil {
		s.log.Error("process_job start failed", "input_file", inputFile, "err", err)
		return uuid.Nil, fmt.Errorf("start job: %w", err)
	}
	s.log.Info("process_job started", "job_id", id, "input_file", inputFile, "category", category, "mode", mode)
	return id, nil
}

func (s *jobStore) FinishOK(ctx context.Context, id uuid.UUID, processor, outputFile string, runtimeMS int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE process_job
		 SET status = ?, processor = ?, output_file = ?, runtime_ms = ?, finished_at = ?
		 WHERE id = ?`,
		string(constants.JobStatusOK), processor, outputFile, runtimeMS, time.Now().UTC(), id.String(),
	)
	if err != nil {
		s.log.Error("process_job finish(OK) failed", "job_id", id, "err", err)
		return fmt.Errorf("finish job: %w", err)
	}
	s.log.Info("process_job finished (OK)", "job_id", id, "processor", processor, "output_file", outputFile)
	return nil
}

func (s *jobStore) FinishFailure(ctx context.Context, id uuid.UUID, message string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE process_job SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		string(constants.JobStatusFailed), message, time.Now().UTC(), id.String(),
	)
	if err != nil {
		s.log.Error("process_job finish(FAILED) failed", "job_id", id, "err", err)
		return fmt.Errorf("finish job: %w", err)
	}
	s.log.Warn("process_job finished (FAILED)", "job_id", id, "error", message)
	return nil
}

func (s *jobStore) Recent(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_file, category, mode, processor, output_file, status, error_message, runtime_ms, created_at, finished_at
		 FROM process_job ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var (
			j        Job
			idStr    string
			category string
			status   string
			finished sql.NullTime
		)
		if err := rows.Scan(&idStr, &j.InputFile, &category, &j.Mode, &j.Processor, &j.OutputFile,
			&status, &j.ErrorMessage, &j.RuntimeMS, &j.CreatedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.ID, _ = uuid.Parse(idStr)
		j.Category = constants.FileCategory(category)
		j.Status = constants.JobStatus(status)
		if finished.Valid {
			t := finished.Time
			j.FinishedAt = &t
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
