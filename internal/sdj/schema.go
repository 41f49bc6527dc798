package sdj

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
)

// BuildDocumentJSONSchema returns the SDJ JSON-Schema (draft 2020-12 subset)
// as a generic map. Persisted documents are validated against it before the
// write, and consumers can use it to reject malformed or foreign payloads.
func BuildDocumentJSONSchema() map[string]any {
	bbox := map[string]any{
		"type":     "array",
		"items":    map[string]any{"type": "number"},
		"minItems": 4,
		"maxItems": 4,
	}
	table := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"table_id": map[string]any{"type": "string"},
			"format":   map[string]any{"type": "string", "enum": []string{"markdown", "html"}},
			"content":  map[string]any{"type": "string"},
			"bbox":     bbox,
		},
		"required": []string{"table_id", "format", "content", "bbox"},
	}
	page := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"page_number": map[string]any{"type": "integer", "minimum": 1},
			"width":       map[string]any{"type": "number"},
			"height":      map[string]any{"type": "number"},
			"text":        map[string]any{"type": "string"},
			"markdown":    map[string]any{"type": "string"},
			"blocks":      map[string]any{"type": "array"},
			"tables":      map[string]any{"type": "array", "items": table},
			"images":      map[string]any{"type": "array"},
			"hyperlinks":  map[string]any{"type": "array"},
		},
		"required": []string{
			"page_number", "width", "height", "text", "markdown",
			"blocks", "tables", "images", "hyperlinks",
		},
	}
	metadata := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"page_count":     map[string]any{"type": "integer", "minimum": 0},
			"language":       map[string]any{"type": "string"},
			"created_at":     map[string]any{"type": "string"},
			"ocr_runtime_ms": map[string]any{"type": "integer", "minimum": 0},
			"model":          map[string]any{"type": "string"},
			"usage_info":     map[string]any{"type": "object"},
			"warnings":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{
			"page_count", "language", "created_at", "ocr_runtime_ms",
			"model", "usage_info", "warnings",
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"schema_version": map[string]any{"type": "string", "const": SchemaVersion},
			"source_file":    map[string]any{"type": "string", "minLength": 1},
			"source_type":    map[string]any{"type": "string", "enum": []string{SourcePDF, SourceImage}},
			"processor": map[string]any{
				"type": "string",
				"enum": []string{ProcessorRemoteOCR, ProcessorLocalPDF, ProcessorLocalImage},
			},
			"pages":    map[string]any{"type": "array", "items": page},
			"metadata": metadata,
			"raw": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"provider": map[string]any{"type": "string"},
					"response": true,
				},
				"required": []string{"provider", "response"},
			},
		},
		"required": []string{
			"schema_version", "source_file", "source_type", "processor",
			"pages", "metadata", "raw",
		},
	}
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func documentSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(BuildDocumentJSONSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("sdj.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("sdj.json")
	})
	return compiledSchema, schemaErr
}

// ValidateJSON validates serialized document bytes against the SDJ schema.
func ValidateJSON(data []byte) error {
	schema, err := documentSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}

// OutputFilename derives the persisted artifact name for an input file:
// deterministic given the basename, always <stem>_ocr.json.
func OutputFilename(inputName string) string {
	base := filepath.Base(inputName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_ocr.json"
}

// WriteDocument validates the document and persists it under dir with the
// derived output filename. A structural validation failure here is a
// programming-contract violation, reported as ErrNormalization.
func WriteDocument(dir string, doc *Document) (string, error) {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal document: %v", common.ErrNormalization, err)
	}
	if err := ValidateJSON(b); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrNormalization, err)
	}
	name := OutputFilename(doc.SourceFile)
	if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return name, nil
}

// ReadDocument loads a persisted SDJ document, rejecting unknown schema
// versions before decoding the rest.
func ReadDocument(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var probe struct {
		SchemaVersion string `json:"schema_version"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if probe.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported schema_version %q (want %q)", probe.SchemaVersion, SchemaVersion)
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}
