package mistral

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/shortcut-bridge/constants"
)

// Request describes one OCR submission. A retried request is semantically
// identical to the first attempt: the payload is built once and resent
// verbatim.
type Request struct {
	DocumentPath       string // local file, inlined as a base64 data URL
	SourceType         string // "pdf" | "image"
	Pages              []int  // 0-based page subset; nil means all pages
	TableFormat        string // "markdown" | "html"
	ExtractHeader      bool
	ExtractFooter      bool
	IncludeImageBase64 bool
}

// buildPayload assembles the wire body for the OCR endpoint.
func buildPayload(model string, req Request) ([]byte, error) {
	docType := "document_url"
	if req.SourceType == "image" {
		docType = "image_url"
	}
	dataURL, err := encodeDataURL(req.DocumentPath)
	if err != nil {
		return nil, err
	}

	tableFormat := req.TableFormat
	if tableFormat == "" {
		tableFormat = "markdown"
	}

	payload := map[string]any{
		"model": model,
		"document": map[string]any{
			"type":  docType,
			docType: dataURL,
		},
		"table_format":         tableFormat,
		"extract_header":       req.ExtractHeader,
		"extract_footer":       req.ExtractFooter,
		"include_image_base64": req.IncludeImageBase64,
	}
	if len(req.Pages) > 0 {
		payload["pages"] = req.Pages
	}
	return json.Marshal(payload)
}

func encodeDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	mime := constants.MimeType(filepath.Ext(path))
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
