package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries an operator-facing message plus a locale key the dispatch
// layer resolves before showing anything to the user. Users never see raw
// internals.
type AppError struct {
	Code      string
	Message   string
	UserKey   string
	Severity  Severity
	Retryable bool
	cause     error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:      "E100",
		Message:   msg,
		UserKey:   "errors.invalid_input",
		Severity:  SeverityLow,
		Retryable: false,
		cause:     nil,
	}
}

func NewStorageError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:      "E200",
		Message:   fmt.Sprintf("Storage error: %s", underlyingMsg),
		UserKey:   "errors.temporary",
		Severity:  SeverityHigh,
		Retryable: true,
		cause:     cause,
	}
}

func NewCatalogError(source string, cause error) *AppError {
	return &AppError{
		Code:      "E300",
		Message:   fmt.Sprintf("Catalog source error: %s", source),
		UserKey:   "errors.catalog_unavailable",
		Severity:  SeverityMedium,
		Retryable: true,
		cause:     cause,
	}
}

func NewRelayError(msg string, cause error) *AppError {
	return &AppError{
		Code:      "E400",
		Message:   msg,
		UserKey:   "errors.relay_failed",
		Severity:  SeverityMedium,
		Retryable: false,
		cause:     cause,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:      "E500",
		Message:   fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserKey:   "errors.rate_limited",
		Severity:  SeverityLow,
		Retryable: false,
		cause:     nil,
	}
}
