// Command runocr processes a single inbox file from the command line,
// bypassing the HTTP surface. Useful for smoke-testing routing and
// extraction setups.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
	"github.com/joseph-ayodele/shortcut-bridge/internal/excel"
	"github.com/joseph-ayodele/shortcut-bridge/internal/extract"
	"github.com/joseph-ayodele/shortcut-bridge/internal/mistral"
	"github.com/joseph-ayodele/shortcut-bridge/internal/pipeline"
	"github.com/joseph-ayodele/shortcut-bridge/internal/routing"
)

func main() {
	var (
		modeFlag  = flag.String("mode", "auto", "routing mode: auto, force_ai, force_local")
		pagesFlag = flag.String("pages", "", "comma-separated 0-based page subset for remote OCR")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: runocr [-mode auto|force_ai|force_local] [-pages 0,1] <file-in-inbox>")
		os.Exit(2)
	}

	mode, err := routing.ParseMode(*modeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	pages, err := parsePages(*pagesFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("load config failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		logger.Error("create directories failed", "error", err)
		os.Exit(1)
	}

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
	}, pdf, img, remote, excel.NewProcessor(logger), nil, logger)

	res, err := processor.Process(context.Background(), pipeline.Request{
		File:  flag.Arg(0),
		Mode:  mode,
		Pages: pages,
	})
	if err != nil {
		logger.Error("processing failed", "file", flag.Arg(0), "error", err)
		os.Exit(1)
	}
	fmt.Printf("%s -> %s (%s)\n", flag.Arg(0), res.OutputFile, res.Processor)
}

func parsePages(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var pages []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		pages = append(pages, n)
	}
	return pages, nil
}
