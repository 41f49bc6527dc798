// Package server exposes the bridge over loopback HTTP: file serving,
// status, processing, export, and the scripting-runtime test endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
	"github.com/joseph-ayodele/shortcut-bridge/internal/pipeline"
	"github.com/joseph-ayodele/shortcut-bridge/internal/repository"
)

const version = "0.2.0"

// DocumentProcessor runs one processing request. Satisfied by
// pipeline.Processor.
type DocumentProcessor interface {
	Process(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Exporter persists a dataset into the exports directory. Satisfied by
// export.Service.
type Exporter interface {
	Write(name string, data json.RawMessage, format string) (string, error)
}

// Deps are the collaborators behind the HTTP surface.
type Deps struct {
	Paths     common.PathsConfig
	Processor DocumentProcessor
	Exporter  Exporter
	Jobs      repository.JobStore // optional
}

type Server struct {
	cfg    common.ServerConfig
	deps   Deps
	logger *slog.Logger
	http   *http.Server
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(cfg common.ServerConfig, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, deps: deps, logger: logger, now: time.Now, sleep: sleepCtx}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /data/", http.StripPrefix("/data/", http.FileServer(http.Dir(deps.Paths.DataDir))))
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("POST /api/export", s.handleExport)
	mux.HandleFunc("GET /api/data", s.handleData)
	mux.HandleFunc("POST /api/echo", s.handleEcho)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/upload-base64", s.handleUploadBase64)
	mux.HandleFunc("GET /api/error", s.handleError)
	mux.HandleFunc("GET /api/slow", s.handleSlow)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/bulk", s.handleBulk)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           allowCORS(cfg.CORSOrigins, logRequests(logger, mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routed handler stack.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until the context is cancelled, then drains in-flight
// requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server.stopped")
	return <-errCh
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
