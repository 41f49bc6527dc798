// Command bridged runs the local bridge server: loopback HTTP in front of
// the document-processing pipeline.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
	"github.com/joseph-ayodele/shortcut-bridge/internal/excel"
	"github.com/joseph-ayodele/shortcut-bridge/internal/export"
	"github.com/joseph-ayodele/shortcut-bridge/internal/extract"
	"github.com/joseph-ayodele/shortcut-bridge/internal/mistral"
	"github.com/joseph-ayodele/shortcut-bridge/internal/pipeline"
	"github.com/joseph-ayodele/shortcut-bridge/internal/repository"
	"github.com/joseph-ayodele/shortcut-bridge/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("load config failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		logger.Error("create directories failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{Path: cfg.Ledger.Path}, logger)
	if err != nil {
		logger.Error("open ledger failed", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)
	jobs := repository.NewJobStore(db, logger)

	pdf := extract.NewPDFExtractor(extract.PDFConfig{
		Pdftotext: cfg.OCR.Pdftotext,
		Pdfimages: cfg.OCR.Pdfimages,
		Pdfinfo:   cfg.OCR.Pdfinfo,
	}, logger)
	img := extract.NewImageExtractor(extract.ImageConfig{Language: cfg.OCR.Language}, logger)
	remote := mistral.NewClient(mistral.Config{
		Endpoint:       cfg.Mistral.Endpoint,
		Model:          cfg.Mistral.Model,
		APIKey:         cfg.Mistral.APIKey,
		ConnectTimeout: cfg.Mistral.ConnectTimeout,
		ReadTimeout:    cfg.Mistral.ReadTimeout,
		RetryWindow:    cfg.Mistral.RetryWindow,
		BackoffBase:    cfg.Mistral.BackoffBase,
	}, logger)

	processor := pipeline.NewProcessor(pipeline.Config{
		InboxDir:     cfg.Paths.InboxDir,
		GeneratedDir: cfg.Paths.GeneratedDir,
		Routing:      cfg.Routing,
	}, pdf, img, remote, excel.NewProcessor(logger), jobs, logger)

	srv := server.New(cfg.Server, server.Deps{
		Paths:     cfg.Paths,
		Processor: processor,
		Exporter:  export.NewService(cfg.Paths.ExportsDir, logger),
		Jobs:      jobs,
	}, logger)

	logger.Info("bridge starting",
		"addr", cfg.Server.Host, "port", cfg.Server.Port,
		"inbox", cfg.Paths.InboxDir,
		"remote_ocr", remote.HasCredentials(),
	)
	if err := srv.Start(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
