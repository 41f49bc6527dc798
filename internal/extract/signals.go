package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
)

// CollectSignals builds the routing snapshot for a PDF: how many pages carry
// extractable text and how many are dominated by embedded raster images.
// minPageTextChars is the per-page cutoff below which a page does not count
// as text-native.
func (e *PDFExtractor) CollectSignals(ctx context.Context, path string, minPageTextChars int) (Signals, error) {
	texts, err := e.pageTexts(ctx, path)
	if err != nil {
		return Signals{}, err
	}

	imagesPerPage, err := e.imageCounts(ctx, path)
	if err != nil {
		// image listing is a secondary signal; text density alone still works
		e.logger.Warn("pdf.signals.images_unavailable", "path", path, "error", err)
		imagesPerPage = nil
	}

	sig := Signals{PageCount: len(texts)}
	for i, raw := range texts {
		chars := len(strings.TrimSpace(raw))
		if chars >= minPageTextChars {
			sig.TextPages++
		}
		if imagesPerPage[i+1] > 0 && chars < minPageTextChars {
			sig.ImageHeavyPages++
		}
	}
	e.logger.Debug("pdf.signals",
		"path", path,
		"pages", sig.PageCount,
		"text_ratio", sig.TextRatio(),
		"image_ratio", sig.ImageRatio(),
	)
	return sig, nil
}

// imageCounts parses `pdfimages -list` output into page -> embedded image
// count. The first two lines are a header and a separator.
func (e *PDFExtractor) imageCounts(ctx context.Context, path string) (map[int]int, error) {
	out, _, err := e.runner.Run(ctx, e.cfg.Pdfimages, "-list", path)
	if err != nil {
		return nil, fmt.Errorf("%w: pdfimages: %v", common.ErrExtraction, err)
	}
	counts := make(map[int]int)
	lines := strings.Split(string(out), "\n")
	for i, line := range lines {
		if i < 2 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		page, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		counts[page]++
	}
	return counts, nil
}
