package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shortcut-bridge/constants"
)

func newTestStore(t *testing.T) JobStore {
	t.Helper()
	db, err := Open(context.Background(), Config{Path: filepath.Join(t.TempDir(), "ledger.db")}, nil)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { Close(db, nil) })
	return NewJobStore(db, nil)
}

func TestJobLifecycleOK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Start(ctx, "report.pdf", constants.PDF, "auto")
	if err != nil {
		t.Fatal(err)
	}
	if id == uuid.Nil {
		t.Fatal("Start returned nil id")
	}
	if err := store.FinishOK(ctx, id, "local_pdf", "report_ocr.json", 128); err != nil {
		t.Fatal(err)
	}

	jobs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 {
		t.Fatalf("recent jobs = %d, want 1", len(jobs))
	}
	j := jobs[0]
	if j.ID != id || j.InputFile != "report.pdf" || j.Category != constants.PDF {
		t.Errorf("job = %+v", j)
	}
	if j.Status != constants.JobStatusOK || j.Processor != "local_pdf" || j.RuntimeMS != 128 {
		t.Errorf("terminal state = %+v", j)
	}
	if j.FinishedAt == nil {
		t.Error("finished_at not set")
	}
}

func TestJobLifecycleFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Start(ctx, "scan.png", constants.IMAGE, "force_ai")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.FinishFailure(ctx, id, "remote OCR status 422"); err != nil {
		t.Fatal(err)
	}

	jobs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	j := jobs[0]
	if j.Status != constants.JobStatusFailed {
		t.Errorf("status = %q", j.Status)
	}
	if j.ErrorMessage != "remote OCR status 422" {
		t.Errorf("error_message = %q", j.ErrorMessage)
	}
	if j.OutputFile != "" {
		t.Errorf("failed job carries output file %q", j.OutputFile)
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.Start(ctx, "f.pdf", constants.PDF, "auto"); err != nil {
			t.Fatal(err)
		}
	}
	jobs, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 3 {
		t.Errorf("limit not applied: %d jobs", len(jobs))
	}
	for _, j := range jobs {
		if j.Status != constants.JobStatusRunning {
			t.Errorf("status = %q", j.Status)
		}
	}
}
