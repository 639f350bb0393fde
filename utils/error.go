package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrorRecordNotFound = errors.New("record not found")

// NotFoundError names the missing resource and still matches ErrorRecordNotFound.
type NotFoundError struct {
	Resource string
	Id       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.Id)
}

func (e *NotFoundError) Unwrap() error { return ErrorRecordNotFound }

func NewNotFoundError(resource string, id any) error {
	return &NotFoundError{Resource: resource, Id: id}
}

// ValidationError carries every field problem found in a request, keyed like `details[0].uomId`.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// FieldErrors collects per-field problems before failing once.
type FieldErrors map[string]string

// Add keeps the first message recorded for a field.
func (f FieldErrors) Add(field string, message string) {
	if _, exists := f[field]; exists {
		return
	}
	f[field] = message
}

// Set overwrites the message for a field.
func (f FieldErrors) Set(field string, message string) {
	f[field] = message
}

func (f FieldErrors) Has(field string) bool {
	_, ok := f[field]
	return ok
}

// Err returns nil when nothing was collected.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Message: "Validation failed", Fields: map[string]string(f)}
}

func NewValidationError(field string, message string) error {
	return &ValidationError{Message: "Validation failed", Fields: map[string]string{field: message}}
}

// ConflictError is a blocking business rule on an otherwise well-formed request.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflictError(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrorRecordNotFound)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// ValidationFields returns the field map of a ValidationError, or nil.
func ValidationFields(err error) map[string]string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Fields
	}
	return nil
}
