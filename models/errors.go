package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeLaunch          = "LAUNCH_FAILED"
	ErrCodeNavigation      = "NAVIGATION_FAILED"
	ErrCodeNavTimeout      = "NAVIGATION_TIMEOUT"
	ErrCodeElementNotFound = "ELEMENT_NOT_FOUND"
	ErrCodeInteraction     = "INTERACTION_FAILED"
	ErrCodeAuthRejected    = "AUTH_REJECTED"
	ErrCodeAuthTimeout     = "AUTH_TIMEOUT"
	ErrCodeAuthUIChanged   = "AUTH_UI_CHANGED"
	ErrCodeExtractTimeout  = "EXTRACTION_TIMEOUT"
	ErrCodeParse           = "PARSE_FAILED"
	ErrCodeBudgetExceeded  = "SCRAPE_TIMEOUT"
	ErrCodeBusy            = "BUSY"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses and per-view results.
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

// Retryable reports whether the error is in the timeout class, for which
// the orchestrator may make one more attempt with a fresh session.
// Credential rejection is deliberately excluded: retrying a wrong password
// risks locking the account.
func (e *ScrapeError) Retryable() bool {
	switch e.Code {
	case ErrCodeNavTimeout, ErrCodeAuthTimeout, ErrCodeExtractTimeout:
		return true
	}
	return false
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// AsScrapeError returns err as a *ScrapeError, wrapping unknown error types
// under ErrCodeInternal.
func AsScrapeError(err error) *ScrapeError {
	if se, ok := err.(*ScrapeError); ok {
		return se
	}
	return NewScrapeError(ErrCodeInternal, err.Error(), err)
}
