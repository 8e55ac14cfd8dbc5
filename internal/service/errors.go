// Package service holds the business rules of the shift ledger, the
// weekly payroll aggregator, the work catalog and account lifecycle.
// Handlers talk to these services; the services talk to the stores
// declared in interfaces.go.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/shift-payroll/internal/repository"
)

// ConflictError reports a business-rule violation such as starting a
// shift while another one is open.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// NotFoundError reports a referenced entity that is absent or not owned
// by the caller.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// ValidationError reports malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Reason) }

// Reasons used by ConflictError.
const (
	ReasonActiveShift      = "active shift exists"
	ReasonUserInactive     = "account is deactivated"
	ReasonCategoryArchived = "category is archived"
	ReasonCategoryTaken    = "category name already exists"
	ReasonUsernameTaken    = "username already exists"
	ReasonShiftInCategory  = "user has an active shift in this category"
	ReasonAdminAccount     = "operation not allowed on admin accounts"
)

// notFound converts repository.ErrNotFound into a NotFoundError for the
// named resource and passes every other error through.
func notFound(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: resource}
	}
	return err
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
