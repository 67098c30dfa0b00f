// Package apperrors contains helper functions and types to work with errors
package apperrors

import (
	"errors"
	"net/http"
)

// Category defines error category
type Category int

const (
	// CategoryNoError means the operation finished without error.
	CategoryNoError Category = iota
	// CategoryValidation covers malformed parameters: zero amounts,
	// unknown tokens, bad addresses.
	CategoryValidation
	// CategoryUnauthorized covers callers lacking the required role:
	// non-validators approving, non-admins pausing, non-senders cancelling.
	CategoryUnauthorized
	// CategoryNotFound covers lookups of ids that were never recorded.
	CategoryNotFound
	// CategoryConflict covers state-machine conflicts: duplicate approvals,
	// parameter mismatches, terminal transfers, active cooldowns.
	CategoryConflict
	// CategoryResourceExhausted covers operations that cannot be paid out,
	// such as releases exceeding escrow liquidity.
	CategoryResourceExhausted
	// CategoryUnavailable covers state-changing calls against a paused bridge.
	CategoryUnavailable
	// CategoryGeneralError means the engine failed in an unexpected way.
	CategoryGeneralError
)

func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "CategoryValidation"
	case CategoryUnauthorized:
		return "CategoryUnauthorized"
	case CategoryNotFound:
		return "CategoryNotFound"
	case CategoryConflict:
		return "CategoryConflict"
	case CategoryResourceExhausted:
		return "CategoryResourceExhausted"
	case CategoryUnavailable:
		return "CategoryUnavailable"
	default:
		return "CategoryGeneralError"
	}
}

// ServiceError is the error type surfaced by every public bridge operation.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

// Error method to comply with error interface
func (err *ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err *ServiceError) Unwrap() error {
	return err.Err
}

// Is implements the custom condition to check an error is equal to a service error
func (err *ServiceError) Is(target error) bool {
	var svcErr *ServiceError
	if errors.As(target, &svcErr) {
		return err.Message == svcErr.Message && err.Category == svcErr.Category
	}
	return err.Message == target.Error()
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category == cat {
		return true
	}
	return false
}

// New returns a ServiceError with the given category and message.
func New(cat Category, message string) error {
	return &ServiceError{
		Category: cat,
		Message:  message,
	}
}

// GeneralError returns a general service error
// the error passed is logged, the message sent to the caller is generic
func GeneralError(err error) error {
	if err == nil {
		err = errors.New("internal server error")
	}
	return &ServiceError{
		Category: CategoryGeneralError,
		Message:  "Internal Server Error",
		Err:      err,
	}
}

// ValidationError returns an error with category Validation
func ValidationError(err error, message string) error {
	if err == nil {
		err = errors.New("validation failed: " + message)
	}
	return &ServiceError{
		Category: CategoryValidation,
		Message:  message,
		Err:      err,
	}
}

// NotFoundError returns an error with category NotFound
func NotFoundError(err error, message string) error {
	if err == nil {
		err = errors.New("not found: " + message)
	}
	return &ServiceError{
		Category: CategoryNotFound,
		Message:  message,
		Err:      err,
	}
}

// UnauthorizedError returns an error with category Unauthorized
func UnauthorizedError(err error, message string) error {
	if err == nil {
		err = errors.New("unauthorized")
	}
	return &ServiceError{
		Category: CategoryUnauthorized,
		Message:  message,
		Err:      err,
	}
}

// ConflictError returns an error with category Conflict
func ConflictError(err error, message string) error {
	if err == nil {
		err = errors.New("conflict")
	}
	return &ServiceError{
		Category: CategoryConflict,
		Message:  message,
		Err:      err,
	}
}

// StatusCode returns the HTTP status code for the error category
func (err *ServiceError) StatusCode() int {
	switch err.Category {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryUnauthorized:
		return http.StatusForbidden
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryConflict:
		return http.StatusConflict
	case CategoryResourceExhausted:
		return http.StatusUnprocessableEntity
	case CategoryUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
