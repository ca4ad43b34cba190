// Package errors classifies failures so callers can map them to exit codes
// and error envelopes. Usage errors (malformed input, unknown enum members,
// unparseable timestamps) are errors; policy denials are results and must
// never travel through this package.
package errors

import "errors"

type Category string

const (
	CategoryInvalidInput      Category = "invalid_input"
	CategoryVerification      Category = "verification_failed"
	CategoryPolicyBlocked     Category = "policy_blocked"
	CategoryDependencyMissing Category = "dependency_missing"
	CategoryIOFailure         Category = "io_failure"
	CategoryInternalFailure   Category = "internal_failure"
)

type classifiedError struct {
	category  Category
	code      string
	hint      string
	retryable bool
	cause     error
}

func (e *classifiedError) Error() string {
	if e.cause == nil {
		return "unknown error"
	}
	return e.cause.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.cause
}

// Wrap attaches a category, stable code, and operator hint to cause.
// Returns nil when cause is nil.
func Wrap(cause error, category Category, code, hint string, retryable bool) error {
	if cause == nil {
		return nil
	}
	return &classifiedError{
		category:  category,
		code:      code,
		hint:      hint,
		retryable: retryable,
		cause:     cause,
	}
}

func CategoryOf(err error) Category {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.category
	}
	return ""
}

func CodeOf(err error) string {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.code
	}
	return ""
}

func HintOf(err error) string {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.hint
	}
	return ""
}

func RetryableOf(err error) bool {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.retryable
	}
	return false
}
