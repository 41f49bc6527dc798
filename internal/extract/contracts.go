// Package extract holds the local extraction paths: text/table extraction
// for digital PDFs and OCR for images. Both read the input path and nothing
// else; neither writes output.
package extract

import "time"

// PDFResult is the library-native result of local PDF extraction.
type PDFResult struct {
	Pages    []PDFPage
	Duration time.Duration
}

// PDFPage is one extracted page in physical order.
type PDFPage struct {
	Text   string
	Width  float64
	Height float64
	Tables []PDFTable
}

// PDFTable is a detected table: header row plus body rows.
type PDFTable struct {
	Header []string
	Rows   [][]string
}

// ImageResult is the library-native result of local image OCR.
type ImageResult struct {
	Text     string
	Width    int
	Height   int
	Duration time.Duration
}

// Signals is the lightweight content snapshot the routing policy inspects
// for PDFs in auto mode.
type Signals struct {
	PageCount       int
	TextPages       int // pages with at least MinPageTextChars of text
	ImageHeavyPages int // pages with embedded raster images and little text
}

// TextRatio is the share of pages carrying extractable text.
func (s Signals) TextRatio() float64 {
	if s.PageCount == 0 {
		return 0
	}
	return float64(s.TextPages) / float64(s.PageCount)
}

// ImageRatio is the share of pages dominated by embedded raster images.
func (s Signals) ImageRatio() float64 {
	if s.PageCount == 0 {
		return 0
	}
	return float64(s.ImageHeavyPages) / float64(s.PageCount)
}
