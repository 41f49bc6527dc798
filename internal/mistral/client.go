// Package mistral talks to the Mistral OCR HTTP API: bearer-token
// authenticated request/response with bounded retry on transient failures.
package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
)

const (
	DefaultEndpoint = "https://api.mistral.ai/v1/ocr"
	DefaultModel    = "mistral-ocr-latest"
)

// Config for the OCR client. APIKey is injected explicitly; the client never
// reads the environment itself.
type Config struct {
	Endpoint       string
	Model          string
	APIKey         string
	ConnectTimeout time.Duration // default 5s
	ReadTimeout    time.Duration // default 60s; remote OCR of large documents is slow
	RetryWindow    time.Duration // default 45s; total time allowed across retries
	BackoffBase    time.Duration // default 500ms
}

// Response is the decoded OCR API response. Raw holds the verbatim body for
// the audit trail.
type Response struct {
	Pages              []ResponsePage  `json:"pages"`
	Model              string          `json:"model"`
	DocumentAnnotation json.RawMessage `json:"document_annotation"`
	UsageInfo          json.RawMessage `json:"usage_info"`

	Raw []byte `json:"-"`
}

// ResponsePage is one page of the OCR response.
type ResponsePage struct {
	Index      int               `json:"index"` // 0-based
	Markdown   string            `json:"markdown"`
	Dimensions ResponseDims      `json:"dimensions"`
	Tables     []ResponseTable   `json:"tables"`
	Images     []json.RawMessage `json:"images"`
	Hyperlinks []json.RawMessage `json:"hyperlinks"`
}

type ResponseDims struct {
	DPI    int     `json:"dpi"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ResponseTable struct {
	ID      string    `json:"id"`
	Format  string    `json:"format"`
	Content string    `json:"content"`
	BBox    []float64 `json:"bbox"`
}

// StatusError is a non-transient upstream rejection (bad request, auth
// failure, unsupported content). Its status passes through to the caller.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote OCR status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error       { return common.ErrRemoteOCR }
func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

// Client submits OCR requests with timeout, retry, and error classification.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	if cfg.RetryWindow <= 0 {
		cfg.RetryWindow = 45 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.ReadTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
			},
		},
		logger: logger,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// HasCredentials reports whether an access token is configured. The routing
// policy consults this before any network attempt.
func (c *Client) HasCredentials() bool { return c.cfg.APIKey != "" }

// Model returns the configured OCR model identifier.
func (c *Client) Model() string { return c.cfg.Model }

// Process submits the document and returns the decoded response. Transient
// failures (rate-limited, unavailable, gateway timeout, network timeout) are
// retried with exponential backoff (a server-supplied Retry-After wins)
// inside a bounded window; exhaustion surfaces ErrRemoteOCRTimeout.
// Non-transient rejections fail immediately without retry.
func (c *Client) Process(ctx context.Context, req Request) (Response, error) {
	if !c.HasCredentials() {
		return Response{}, fmt.Errorf("%w: no API key configured", common.ErrMissingCredentials)
	}

	body, err := buildPayload(c.cfg.Model, req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	reqID := uuid.New().String()
	deadline := c.now().Add(c.cfg.RetryWindow)

	for attempt := 0; ; attempt++ {
		c.logger.Info("mistral.request",
			"req_id", reqID,
			"attempt", attempt,
			"source_type", req.SourceType,
			"content_length", len(body),
		)

		resp, retryAfter, err := c.attempt(ctx, body)
		if err == nil {
			c.logger.Info("mistral.response.ok",
				"req_id", reqID,
				"attempt", attempt,
				"pages", len(resp.Pages),
			)
			return resp, nil
		}
		if !isTransient(err) {
			c.logger.Error("mistral.response.rejected", "req_id", reqID, "error", err)
			return Response{}, err
		}

		delay := c.backoff(attempt, retryAfter)
		if c.now().Add(delay).After(deadline) {
			c.logger.Error("mistral.retries_exhausted",
				"req_id", reqID,
				"attempts", attempt+1,
				"window_ms", c.cfg.RetryWindow.Milliseconds(),
				"last_error", err,
			)
			return Response{}, fmt.Errorf("%w: after %d attempts: %v", common.ErrRemoteOCRTimeout, attempt+1, err)
		}
		c.logger.Warn("mistral.retrying", "req_id", reqID, "attempt", attempt, "delay_ms", delay.Milliseconds(), "error", err)
		if err := c.sleep(ctx, delay); err != nil {
			return Response{}, err
		}
	}
}

// transientError marks failures expected to resolve on retry.
type transientError struct{ cause error }

func (e *transientError) Error() string { return e.cause.Error() }
func (e *transientError) Unwrap() error { return e.cause }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// attempt performs exactly one HTTP round trip. retryAfter is non-zero only
// when the server supplied an explicit Retry-After on a transient status.
func (c *Client) attempt(ctx context.Context, body []byte) (Response, time.Duration, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, 0, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, 0, ctx.Err()
		}
		// network-level failures (timeouts, resets) are worth retrying
		return Response{}, 0, &transientError{cause: fmt.Errorf("%w: %v", common.ErrRemoteOCR, err)}
	}
	defer func() {
		if cerr := httpResp.Body.Close(); cerr != nil {
			c.logger.Warn("mistral.body_close_error", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, 0, &transientError{cause: fmt.Errorf("%w: read body: %v", common.ErrRemoteOCR, err)}
	}

	switch httpResp.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return Response{}, parseRetryAfter(httpResp.Header.Get("Retry-After")), &transientError{
			cause: &StatusError{StatusCode: httpResp.StatusCode, Body: string(raw)},
		}
	}
	if httpResp.StatusCode/100 != 2 {
		return Response{}, 0, &StatusError{StatusCode: httpResp.StatusCode, Body: string(raw)}
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, 0, fmt.Errorf("%w: decode response: %v", common.ErrRemoteOCR, err)
	}
	resp.Raw = raw
	return resp, 0, nil
}

// backoff computes the next delay: exponential from the base with 20% jitter
// shaved off, unless the server supplied Retry-After.
func (c *Client) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	delay := c.cfg.BackoffBase << uint(attempt)
	return delay - delay/5
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
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
