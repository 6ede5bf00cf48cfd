package domain

import "github.com/cockroachdb/errors"

var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("concurrent modification")
	ErrQuotaExhausted       = errors.New("quota exhausted")
	ErrAccountSuspended     = errors.New("account suspended")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrDuplicateApplication = errors.New("duplicate application")
	ErrJobNotActive         = errors.New("job is not active")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

// IsRoutine reports whether err is an expected business outcome rather than a system failure.
func IsRoutine(err error) bool {
	return errors.IsAny(err,
		ErrValidation,
		ErrNotFound,
		ErrConflict,
		ErrQuotaExhausted,
		ErrAccountSuspended,
		ErrInvalidTransition,
		ErrNotAuthorized,
		ErrDuplicateApplication,
		ErrJobNotActive,
	)
}
