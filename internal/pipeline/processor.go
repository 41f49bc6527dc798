// Package pipeline coordinates one processing request end to end: input
// validation, routing, extraction, normalization, and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shortcut-bridge/constants"
	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
	"github.com/joseph-ayodele/shortcut-bridge/internal/extract"
	"github.com/joseph-ayodele/shortcut-bridge/internal/mistral"
	"github.com/joseph-ayodele/shortcut-bridge/internal/repository"
	"github.com/joseph-ayodele/shortcut-bridge/internal/routing"
	"github.com/joseph-ayodele/shortcut-bridge/internal/sdj"
)

// PDFExtractor is the local text/table extraction path.
type PDFExtractor interface {
	Extract(ctx context.Context, path string) (extract.PDFResult, error)
	CollectSignals(ctx context.Context, path string, minPageTextChars int) (extract.Signals, error)
}

// ImageExtractor is the local OCR path.
type ImageExtractor interface {
	Extract(ctx context.Context, path string) (extract.ImageResult, error)
	Model() string
}

// RemoteOCR is the remote extraction path. Swappable: an implementation with
// async submit/poll semantics can sit behind the same contract.
type RemoteOCR interface {
	Process(ctx context.Context, req mistral.Request) (mistral.Response, error)
	HasCredentials() bool
}

// ExcelProcessor handles spreadsheet inputs outside the OCR core.
type ExcelProcessor interface {
	Process(ctx context.Context, inputPath, outputDir, format string) (string, error)
}

// Request is one processing call from the bridge surface.
type Request struct {
	File               string // relative path under the inbox
	Mode               routing.Mode
	Pages              []int // 0-based subset for the remote path
	TableFormat        string
	OutputFormat       string // spreadsheet path only: "json" (default) or "csv"
	ExtractHeader      bool
	ExtractFooter      bool
	IncludeImageBase64 bool
}

// Result names the persisted artifact.
type Result struct {
	OutputFile string
	Processor  string
}

// Config for the orchestrator.
type Config struct {
	InboxDir     string
	GeneratedDir string
	Routing      common.RoutingConfig
	Language     string        // recorded in document metadata, default "en"
	Timeout      time.Duration // overall per-request deadline, default 3m
}

// Processor is the entry point external callers use. Requests execute
// synchronously and independently; the only shared state is read-only
// configuration and the ledger.
type Processor struct {
	cfg    Config
	pdf    PDFExtractor
	image  ImageExtractor
	remote RemoteOCR
	excel  ExcelProcessor
	jobs   repository.JobStore
	logger *slog.Logger
}

func NewProcessor(cfg Config, pdf PDFExtractor, image ImageExtractor, remote RemoteOCR, excel ExcelProcessor, jobs repository.JobStore, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	if cfg.Routing.MinTextRatio <= 0 {
		cfg.Routing.MinTextRatio = 0.6
	}
	if cfg.Routing.MaxImageRatio <= 0 {
		cfg.Routing.MaxImageRatio = 0.4
	}
	if cfg.Routing.MinPageTextChars <= 0 {
		cfg.Routing.MinPageTextChars = 50
	}
	return &Processor{cfg: cfg, pdf: pdf, image: image, remote: remote, excel: excel, jobs: jobs, logger: logger}
}

// Process validates the input, routes it, runs the selected extractor, and
// persists the normalized document. Two concurrent requests for the same
// basename write the same output name; last writer wins.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	path, err := p.resolveInput(req.File)
	if err != nil {
		return Result{}, classify(err)
	}
	category := constants.MapExtToCategory(filepath.Ext(path))
	if category == "" {
		return Result{}, classify(fmt.Errorf("%w: %s", common.ErrUnsupportedFileType, filepath.Ext(path)))
	}

	jobID := p.startJob(ctx, req, category)

	res, runtimeMS, err := p.dispatch(ctx, req, path, category)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: request deadline exceeded: %v", common.ErrRemoteOCRTimeout, err)
		}
		appErr := classify(err)
		p.finishJob(ctx, jobID, Result{}, 0, appErr)
		p.logger.Error("pipeline.process.failed", "file", req.File, "code", appErr.Code, "error", err)
		return Result{}, appErr
	}
	p.finishJob(ctx, jobID, res, runtimeMS, nil)

	p.logger.Info("pipeline.process.ok",
		"file", req.File,
		"category", category,
		"processor", res.Processor,
		"output_file", res.OutputFile,
	)
	return res, nil
}

func (p *Processor) dispatch(ctx context.Context, req Request, path string, category constants.FileCategory) (Result, int64, error) {
	if category == constants.EXCEL {
		start := time.Now()
		name, err := p.excel.Process(ctx, path, p.cfg.GeneratedDir, req.OutputFormat)
		if err != nil {
			return Result{}, 0, err
		}
		return Result{OutputFile: name, Processor: "excel"}, time.Since(start).Milliseconds(), nil
	}
	return p.processOCR(ctx, req, path, category)
}

func (p *Processor) processOCR(ctx context.Context, req Request, path string, category constants.FileCategory) (Result, int64, error) {
	in := routing.Input{
		Category:       category,
		Mode:           req.Mode,
		HasCredentials: p.remote.HasCredentials(),
	}
	if req.Mode == routing.ModeAuto && category == constants.PDF {
		sig, err := p.pdf.CollectSignals(ctx, path, p.cfg.Routing.MinPageTextChars)
		if err != nil {
			// no snapshot: the policy treats the PDF as uninspectable
			p.logger.Warn("pipeline.signals.failed", "file", req.File, "error", err)
		} else {
			in.Signals = sig
			in.HasSignals = true
		}
	}

	decision, err := routing.Decide(p.cfg.Routing, in)
	if err != nil {
		return Result{}, 0, err
	}
	p.logger.Info("pipeline.routed", "file", req.File, "path", decision.Path, "reason", decision.Reason)

	prov := sdj.Provenance{
		SourceFile: filepath.Base(path),
		SourceType: sourceTypeOf(category),
		Language:   p.cfg.Language,
		Warnings:   decision.Warnings,
	}

	start := time.Now()
	var doc *sdj.Document
	switch {
	case decision.Path == routing.PathRemote:
		resp, err := p.remote.Process(ctx, mistral.Request{
			DocumentPath:       path,
			SourceType:         prov.SourceType,
			Pages:              req.Pages,
			TableFormat:        req.TableFormat,
			ExtractHeader:      req.ExtractHeader,
			ExtractFooter:      req.ExtractFooter,
			IncludeImageBase64: req.IncludeImageBase64,
		})
		if err != nil {
			return Result{}, 0, err
		}
		prov.RuntimeMS = time.Since(start).Milliseconds()
		doc = sdj.NormalizeRemote(resp, prov)

	case category == constants.PDF:
		res, err := p.pdf.Extract(ctx, path)
		if err != nil {
			return Result{}, 0, err
		}
		prov.RuntimeMS = time.Since(start).Milliseconds()
		doc = sdj.NormalizeLocalPDF(res, prov)

	default:
		res, err := p.image.Extract(ctx, path)
		if err != nil {
			return Result{}, 0, err
		}
		prov.RuntimeMS = time.Since(start).Milliseconds()
		doc = sdj.NormalizeLocalImage(res, p.image.Model(), prov)
	}

	name, err := sdj.WriteDocument(p.cfg.GeneratedDir, doc)
	if err != nil {
		return Result{}, 0, err
	}
	return Result{OutputFile: name, Processor: doc.Processor}, prov.RuntimeMS, nil
}

// resolveInput joins the relative reference onto the inbox and rejects
// anything escaping it.
func (p *Processor) resolveInput(file string) (string, error) {
	if strings.TrimSpace(file) == "" {
		return "", fmt.Errorf("%w: missing 'file' parameter", common.ErrInvalidInput)
	}
	inbox, err := filepath.Abs(p.cfg.InboxDir)
	if err != nil {
		return "", common.WrapError(err, "resolve inbox")
	}
	full := filepath.Clean(filepath.Join(inbox, filepath.FromSlash(file)))
	if full != inbox && !strings.HasPrefix(full, inbox+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes inbox", common.ErrInvalidInput)
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: file not found in inbox: %s", common.ErrNotFound, file)
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", common.ErrInvalidInput, file)
	}
	return full, nil
}

func sourceTypeOf(category constants.FileCategory) string {
	if category == constants.IMAGE {
		return sdj.SourceImage
	}
	return sdj.SourcePDF
}

// classify wraps a failure in an AppError so the ledger row and the log
// line carry the same stable code the caller sees.
func classify(err error) *common.AppError {
	return common.NewAppError(errorCode(err), "processing failed", err)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, common.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, common.ErrUnsupportedFileType):
		return "UNSUPPORTED_FILE_TYPE"
	case errors.Is(err, common.ErrUnsupportedFormat):
		return "UNSUPPORTED_FORMAT"
	case errors.Is(err, common.ErrMissingCredentials):
		return "MISSING_CREDENTIALS"
	case errors.Is(err, common.ErrRemoteOCRTimeout):
		return "REMOTE_OCR_TIMEOUT"
	case errors.Is(err, common.ErrRemoteOCR):
		return "REMOTE_OCR"
	case errors.Is(err, common.ErrExtraction):
		return "EXTRACTION"
	case errors.Is(err, common.ErrNormalization):
		return "NORMALIZATION"
	default:
		return "INTERNAL"
	}
}

// Ledger writes are observability, not control flow: failures are logged
// and the request proceeds.

func (p *Processor) startJob(ctx context.Context, req Request, category constants.FileCategory) uuid.UUID {
	if p.jobs == nil {
		return uuid.Nil
	}
	id, err := p.jobs.Start(ctx, req.File, category, string(req.Mode))
	if err != nil {
		p.logger.Warn("pipeline.ledger.start_failed", "file", req.File, "error", err)
		return uuid.Nil
	}
	return id
}

func (p *Processor) finishJob(ctx context.Context, id uuid.UUID, res Result, runtimeMS int64, cause error) {
	if p.jobs == nil || id == uuid.Nil {
		return
	}
	if cause != nil {
		if err := p.jobs.FinishFailure(context.WithoutCancel(ctx), id, cause.Error()); err != nil {
			p.logger.Warn("pipeline.ledger.finish_failed", "job_id", id, "error", err)
		}
		return
	}
	if err := p.jobs.FinishOK(ctx, id, res.Processor, res.OutputFile, runtimeMS); err != nil {
		p.logger.Warn("pipeline.ledger.finish_failed", "job_id", id, "error", err)
	}
}
