// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation   = errors.New("validation error")
	ErrInvalidID    = errors.New("invalid ID")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyValue   = errors.New("value cannot be empty")

	// Storage errors. A corrupt collection is fatal for the operation
	// that read it; nothing tries to repair it.
	ErrStorageCorrupt = errors.New("storage corrupt")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")

	// Capability errors
	ErrFeatureDisabled = errors.New("feature disabled")
)

// ErrConflict is the name the directory uses for a duplicate NRP.
var ErrConflict = ErrAlreadyExists

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "social", "storage"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student domain errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrStudentAlreadyExists = NewDomainError("student", "Create", ErrAlreadyExists, "student with this NRP already exists")
	ErrInvalidNRP           = NewDomainError("student", "Validate", ErrInvalidID, "NRP is required")
	ErrInvalidProgram       = NewDomainError("student", "Validate", ErrInvalidInput, "program must be one of DSAI, NCS, IMES, DMT, GD")
	ErrNRPMismatch          = NewDomainError("student", "Update", ErrValidation, "NRP in payload differs from the record being updated")
)

// Social domain errors
var (
	ErrFriendNotFound = NewDomainError("social", "FindFriend", ErrNotFound, "student is not in the friends list")
)

// Collaborator errors
var (
	ErrTextTooShort         = NewDomainError("assistant", "Refine", ErrValidation, "Please enter some text first for the AI to refine.")
	ErrUnknownRefineField   = NewDomainError("assistant", "Refine", ErrInvalidInput, "field must be one of aboutMe, experiences, courseList")
	ErrGeneratorUnavailable = NewDomainError("assistant", "Generate", ErrServiceUnavailable, "text generator is not configured")
	ErrPhotoRejected        = NewDomainError("student", "UploadPhoto", ErrInvalidInput, "photo must be a non-empty image")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsConflict is IsAlreadyExists under the directory's name.
func IsConflict(err error) bool {
	return IsAlreadyExists(err)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue)
}

// IsStorageCorrupt checks if persisted data could not be decoded.
func IsStorageCorrupt(err error) bool {
	return errors.Is(err, ErrStorageCorrupt)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsFeatureDisabled checks if an optional capability was switched off.
func IsFeatureDisabled(err error) bool {
	return errors.Is(err, ErrFeatureDisabled)
}
