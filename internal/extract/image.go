package extract

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/shortcut-bridge/constants"
	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
)

// Engine recognizes text in a single image file. The default engine is
// Tesseract; tests supply fakes.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, path, language string) (string, error)
}

type tesseractEngine struct{}

func (tesseractEngine) Name() string { return "tesseract" }

func (tesseractEngine) Recognize(ctx context.Context, path, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	return client.Text()
}

// ImageConfig configures the local image OCR extractor.
type ImageConfig struct {
	Language string // default "eng"
}

// ImageExtractor reads an image, decodes its dimensions, and emits a single
// best-effort plain-text transcription.
type ImageExtractor struct {
	cfg    ImageConfig
	engine Engine
	logger *slog.Logger
}

func NewImageExtractor(cfg ImageConfig, logger *slog.Logger) *ImageExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &ImageExtractor{cfg: cfg, engine: tesseractEngine{}, logger: logger}
}

// WithEngine swaps the OCR engine; tests use this to avoid Tesseract.
func (e *ImageExtractor) WithEngine(eng Engine) *ImageExtractor {
	e.engine = eng
	return e
}

// Model identifies the extractor for document metadata.
func (e *ImageExtractor) Model() string { return e.engine.Name() }

func (e *ImageExtractor) Extract(ctx context.Context, path string) (ImageResult, error) {
	start := time.Now()

	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := constants.SupportedImageExts[ext]; !ok {
		return ImageResult{}, fmt.Errorf("%w: .%s", common.ErrUnsupportedFormat, ext)
	}

	width, height, err := decodeDimensions(path)
	if err != nil {
		return ImageResult{}, err
	}

	text, err := e.engine.Recognize(ctx, path, e.cfg.Language)
	if err != nil {
		return ImageResult{}, fmt.Errorf("%w: %s: %v", common.ErrExtraction, e.engine.Name(), err)
	}

	res := ImageResult{
		Text:     strings.TrimSpace(text),
		Width:    width,
		Height:   height,
		Duration: time.Since(start),
	}
	e.logger.Debug("image.extract.ok",
		"path", path,
		"engine", e.engine.Name(),
		"chars", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// decodeDimensions reads the image header only. Encodings without a
// registered decoder (e.g. avif) are unsupported on the local path.
func decodeDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: open image: %v", common.ErrExtraction, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", common.ErrUnsupportedFormat, err)
	}
	return cfg.Width, cfg.Height, nil
}
