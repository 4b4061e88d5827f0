package factory

import "errors"

// Procedure errors. Every failed invocation aborts atomically and reports
// exactly one of these kinds; there is no generic failure.
var (
	// ErrInsufficientFee is returned when the fee payment is below the
	// currently effective schedule.
	ErrInsufficientFee = errors.New("fee payment below current schedule")

	// ErrUnauthorized is returned when the caller identity does not match
	// the required administrator or mint authority.
	ErrUnauthorized = errors.New("caller is not authorized")

	// ErrInvalidParameters is returned for any input outside its declared
	// domain: string length, decimals range, zero or overflowing amount.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrTokenNotFound is returned when the token address is absent from
	// the registry.
	ErrTokenNotFound = errors.New("token not found")

	// ErrMetadataAlreadySet is returned when the one-time metadata
	// transition has already happened.
	ErrMetadataAlreadySet = errors.New("metadata already set")
)

// ErrorKind labels the five error kinds for metrics and API mapping.
type ErrorKind string

// Error kinds.
const (
	KindNone          ErrorKind = "none"
	KindFee           ErrorKind = "fee"
	KindAuthorization ErrorKind = "authorization"
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindStateConflict ErrorKind = "state_conflict"
	KindInternal      ErrorKind = "internal"
)

// KindOf classifies an error into its taxonomy kind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInsufficientFee):
		return KindFee
	case errors.Is(err, ErrUnauthorized):
		return KindAuthorization
	case errors.Is(err, ErrInvalidParameters):
		return KindValidation
	case errors.Is(err, ErrTokenNotFound):
		return KindNotFound
	case errors.Is(err, ErrMetadataAlreadySet):
		return KindStateConflict
	default:
		return KindInternal
	}
}
