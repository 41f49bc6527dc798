package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Paths   PathsConfig
	OCR     OCRConfig
	Routing RoutingConfig
	Mistral MistralConfig
	Ledger  LedgerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

// PathsConfig holds the directory layout of the bridge.
// Everything is derived from BaseDir unless overridden.
type PathsConfig struct {
	BaseDir      string
	DataDir      string
	SamplesDir   string
	GeneratedDir string
	ExportsDir   string
	InboxDir     string
}

// OCRConfig holds local extraction configuration
type OCRConfig struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdfimages string // binary name or absolute path; if empty -> "pdfimages"
	Pdfinfo   string // binary name or absolute path; if empty -> "pdfinfo"
	Language  string // OCR language code, default "eng"
}

// RoutingConfig holds the auto-mode heuristic thresholds.
// These are tunable policy parameters, not fixed laws.
type RoutingConfig struct {
	MinTextRatio     float64 // below this, a PDF counts as scan-like (default 0.6)
	MaxImageRatio    float64 // at/above this, a PDF counts as image-heavy (default 0.4)
	MinPageTextChars int     // a page with fewer extractable chars is not text-native (default 50)
}

// MistralConfig holds remote OCR client configuration
type MistralConfig struct {
	Endpoint       string
	Model          string
	APIKey         string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	RetryWindow    time.Duration
	BackoffBase    time.Duration
}

// LedgerConfig holds the processing-history store configuration
type LedgerConfig struct {
	Path string // sqlite file; if empty -> <base>/bridge.db
}

// fileConfig is the optional YAML config file schema. File values fill gaps
// left by the environment; environment variables win.
type fileConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"corsOrigins"`
	BaseDir     string   `yaml:"baseDir"`

	OCR struct {
		Pdftotext string `yaml:"pdftotext"`
		Pdfimages string `yaml:"pdfimages"`
		Language  string `yaml:"language"`
	} `yaml:"ocr"`

	Routing struct {
		MinTextRatio     float64 `yaml:"minTextRatio"`
		MaxImageRatio    float64 `yaml:"maxImageRatio"`
		MinPageTextChars int     `yaml:"minPageTextChars"`
	} `yaml:"routing"`

	Mistral struct {
		Endpoint       string        `yaml:"endpoint"`
		Model          string        `yaml:"model"`
		ConnectTimeout time.Duration `yaml:"connectTimeout"`
		ReadTimeout    time.Duration `yaml:"readTimeout"`
		RetryWindow    time.Duration `yaml:"retryWindow"`
	} `yaml:"mistral"`
}

// LoadConfig loads configuration from environment variables, optionally
// merged over a YAML config file (BRIDGE_CONFIG or ./config.yaml).
func LoadConfig() (*Config, error) {
	var fc fileConfig
	path := getEnv("BRIDGE_CONFIG", "config.yaml")
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	} else if os.Getenv("BRIDGE_CONFIG") != "" {
		// an explicitly named file must exist
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	base := getEnv("BRIDGE_BASE_DIR", firstNonEmpty(fc.BaseDir, "."))
	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("BRIDGE_HOST", firstNonEmpty(fc.Host, "127.0.0.1")),
			Port:        getEnvAsInt("BRIDGE_PORT", firstNonZero(fc.Port, 8000)),
			CORSOrigins: fc.CORSOrigins,
		},
		Paths: PathsConfig{
			BaseDir:      base,
			DataDir:      filepath.Join(base, "data"),
			SamplesDir:   filepath.Join(base, "data", "samples"),
			GeneratedDir: filepath.Join(base, "data", "generated"),
			ExportsDir:   filepath.Join(base, "data", "exports"),
			InboxDir:     filepath.Join(base, "inbox"),
		},
		OCR: OCRConfig{
			Pdftotext: getEnv("PDFTOTEXT_BIN", firstNonEmpty(fc.OCR.Pdftotext, "pdftotext")),
			Pdfimages: getEnv("PDFIMAGES_BIN", firstNonEmpty(fc.OCR.Pdfimages, "pdfimages")),
			Pdfinfo:   getEnv("PDFINFO_BIN", "pdfinfo"),
			Language:  getEnv("OCR_LANGUAGE", firstNonEmpty(fc.OCR.Language, "eng")),
		},
		Routing: RoutingConfig{
			MinTextRatio:     getEnvAsFloat("ROUTING_MIN_TEXT_RATIO", firstNonZeroF(fc.Routing.MinTextRatio, 0.6)),
			MaxImageRatio:    getEnvAsFloat("ROUTING_MAX_IMAGE_RATIO", firstNonZeroF(fc.Routing.MaxImageRatio, 0.4)),
			MinPageTextChars: getEnvAsInt("ROUTING_MIN_PAGE_TEXT_CHARS", firstNonZero(fc.Routing.MinPageTextChars, 50)),
		},
		Mistral: MistralConfig{
			Endpoint:       getEnv("MISTRAL_OCR_ENDPOINT", firstNonEmpty(fc.Mistral.Endpoint, "https://api.mistral.ai/v1/ocr")),
			Model:          getEnv("MISTRAL_OCR_MODEL", firstNonEmpty(fc.Mistral.Model, "mistral-ocr-latest")),
			APIKey:         getEnv("MISTRAL_API_KEY", ""),
			ConnectTimeout: getEnvAsDuration("MISTRAL_CONNECT_TIMEOUT", firstNonZeroD(fc.Mistral.ConnectTimeout, 5*time.Second)),
			ReadTimeout:    getEnvAsDuration("MISTRAL_READ_TIMEOUT", firstNonZeroD(fc.Mistral.ReadTimeout, 60*time.Second)),
			RetryWindow:    getEnvAsDuration("MISTRAL_RETRY_WINDOW", firstNonZeroD(fc.Mistral.RetryWindow, 45*time.Second)),
			BackoffBase:    getEnvAsDuration("MISTRAL_BACKOFF_BASE", 500*time.Millisecond),
		},
		Ledger: LedgerConfig{
			Path: getEnv("BRIDGE_DB_PATH", filepath.Join(base, "bridge.db")),
		},
	}
	return cfg, nil
}

// EnsureDirs creates the data and inbox directories if missing.
func (c *Config) EnsureDirs() error {
	for _, d := range []string{
		c.Paths.SamplesDir,
		c.Paths.GeneratedDir,
		c.Paths.ExportsDir,
		c.Paths.InboxDir,
	} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", d, err)
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonZeroF(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonZeroD(vals ...time.Duration) time.Duration {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
