package core

import "errors"

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrMissingDate          = errors.New("missing date")
	ErrMissingType          = errors.New("missing type")
	ErrMissingField         = errors.New("missing required field")
	ErrTooLong              = errors.New("value too long")
	ErrDueDateInPast        = errors.New("due date in the past")
	ErrFutureDate           = errors.New("date in the future")
	ErrExceedsRemaining     = errors.New("payment exceeds remaining amount")
	ErrAlreadyPaid          = errors.New("debt already paid")
	ErrAlreadyPremium       = errors.New("premium subscription already active")
	ErrDuplicateCategory    = errors.New("duplicate category")
	ErrDefaultCategory      = errors.New("default category is read-only")
	ErrImmutableType        = errors.New("type cannot be changed")
	ErrUnsupportedCurrency  = errors.New("unsupported currency")
	ErrPremiumRequired      = errors.New("premium subscription required")
	ErrInvalidDateRange     = errors.New("invalid date range")
	ErrInvalidGranularity   = errors.New("invalid granularity")
	ErrOperationInFlight    = errors.New("operation already in progress")
	ErrNotFound             = errors.New("not found")
	ErrUnsupportedExportFmt = errors.New("unsupported export format")
	ErrInvalidExportFormat  = errors.New("invalid export format")
)

// ValidationError is a local rejection detected before any remote call.
// Message is meant to be shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError.
func Invalid(field string, err error, message string) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
