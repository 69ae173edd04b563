package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	// ErrCodeSessionSetup is fatal to the invocation: the browser binary or
	// driver is missing, incompatible, or failed to start. The only error
	// code a scrape caller ever sees as a failure.
	ErrCodeSessionSetup = "SESSION_SETUP"

	// ErrCodeNavigationTimeout means the search box or results feed never
	// appeared within the bounded wait. Treated as "no results", non-fatal.
	ErrCodeNavigationTimeout = "NAVIGATION_TIMEOUT"

	// ErrCodeElementNotFound means a specific field or listing locator
	// missed. Absorbed at the field/listing level, never propagated upward.
	ErrCodeElementNotFound = "ELEMENT_NOT_FOUND"

	// ErrCodePartialExtraction means one listing's detail-panel drill-down
	// failed mid-flight. That listing is skipped, the rest continue.
	ErrCodePartialExtraction = "PARTIAL_EXTRACTION"

	ErrCodeStorageFailed = "STORAGE_FAILED"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
