package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("not found")

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

type FileValidationError struct {
	Field   string
	Message string
}

func (e *FileValidationError) Error() string {
	return fmt.Sprintf("invalid file %s: %s", e.Field, e.Message)
}

// ReferenceError reports an id that does not point at an existing, non-deleted lookup row.
type ReferenceError struct {
	Field string
	Kind  LookupKind
	ID    int
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s with id %d does not exist", e.Kind, e.ID)
}

type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// FormRejection is returned when a submitted form must be shown again. It
// keeps the non-file input and the lookup rows the form is rendered with.
type FormRejection struct {
	Err     error
	Form    ProductForm
	Lookups FormLookups
}

func (e *FormRejection) Error() string {
	return "form rejected: " + e.Err.Error()
}

func (e *FormRejection) Unwrap() error {
	return e.Err
}

// FieldErrors flattens a recoverable form error into per-field messages.
// It returns nil for errors that are not tied to form fields.
func FieldErrors(err error) []FieldError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}
	var fileErr *FileValidationError
	if errors.As(err, &fileErr) {
		return []FieldError{{Field: fileErr.Field, Message: fileErr.Message}}
	}
	var refErr *ReferenceError
	if errors.As(err, &refErr) {
		return []FieldError{{Field: refErr.Field, Message: fmt.Sprintf("%s doesn't exist", refErr.Kind)}}
	}
	return nil
}
