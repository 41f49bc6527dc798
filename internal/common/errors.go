package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrUnsupportedFormat   = errors.New("unsupported image format")
	ErrMissingCredentials  = errors.New("missing remote OCR credentials")
	ErrExtraction          = errors.New("extraction failed")
	ErrRemoteOCR           = errors.New("remote OCR failed")
	ErrRemoteOCRTimeout    = errors.New("remote OCR retries exhausted")
	ErrNormalization       = errors.New("normalization contract violation")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// StatusCoder lets an error dictate the HTTP status returned to the caller.
// Remote OCR errors implement this to pass the upstream status through.
type StatusCoder interface {
	HTTPStatusCode() int
}

// HTTPStatus maps an error from the processing core to an HTTP status class:
// 400 for input/validation/credential errors, 404 for missing input files,
// 500 for extraction and remote failures.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrUnsupportedFileType),
		errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
