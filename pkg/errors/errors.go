// Package errors provides custom error types for the motherdb system.
// These errors let the comparison, consensus and QC pipelines report
// recoverable failures as data while still supporting errors.Is/As checks.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As and Join are re-exported so callers only need one errors import.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Common sentinel errors for the motherdb system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrLoad indicates that a source could not be read or is unsupported
	ErrLoad = errors.New("load failed")

	// ErrSchema indicates that a dataset is missing a required column
	ErrSchema = errors.New("schema violation")

	// ErrNumericParse indicates a non-numeric value where a number was expected
	ErrNumericParse = errors.New("numeric parse failed")

	// ErrPersistence indicates the baseline store is unreachable or a write failed
	ErrPersistence = errors.New("persistence failed")

	// ErrConfiguration indicates no baseline is registered for an equipment type
	ErrConfiguration = errors.New("configuration error")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// LoadError represents a source that could not be read or is in an unsupported format.
type LoadError struct {
	Source  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Source, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// NewLoadError creates a new LoadError
func NewLoadError(source, message string, err error) *LoadError {
	return &LoadError{Source: source, Message: message, Err: err}
}

// SchemaError represents a dataset or record missing a required column.
type SchemaError struct {
	Source string
	Column string
	Record int // 1-based record index, 0 when the whole dataset is affected
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	if e.Record > 0 {
		return fmt.Sprintf("source %s record %d: required column %q is empty", e.Source, e.Record, e.Column)
	}
	return fmt.Sprintf("source %s: required column %q is missing", e.Source, e.Column)
}

// Is implements errors.Is support
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// NewSchemaError creates a new SchemaError for a whole dataset
func NewSchemaError(source, column string) *SchemaError {
	return &SchemaError{Source: source, Column: column}
}

// NumericParseError represents a non-numeric value in a numeric field.
type NumericParseError struct {
	Parameter string
	Field     string
	Value     string
	Err       error
}

// Error implements the error interface
func (e *NumericParseError) Error() string {
	return fmt.Sprintf("parameter %s: field %s value %q is not numeric", e.Parameter, e.Field, e.Value)
}

// Unwrap implements errors.Unwrap
func (e *NumericParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *NumericParseError) Is(target error) bool {
	return target == ErrNumericParse
}

// NewNumericParseError creates a new NumericParseError
func NewNumericParseError(parameter, field, value string, err error) *NumericParseError {
	return &NumericParseError{Parameter: parameter, Field: field, Value: value, Err: err}
}

// PersistenceError represents a failed baseline store operation.
type PersistenceError struct {
	Operation       string // "get", "save", "migrate"
	EquipmentTypeID string
	Parameters      []string
	Err             error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	if len(e.Parameters) > 0 {
		return fmt.Sprintf("baseline %s for %s failed (parameters: %s): %v",
			e.Operation, e.EquipmentTypeID, strings.Join(e.Parameters, ", "), e.Err)
	}
	return fmt.Sprintf("baseline %s for %s failed: %v", e.Operation, e.EquipmentTypeID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// NewPersistenceError creates a new PersistenceError
func NewPersistenceError(operation, equipmentTypeID string, err error) *PersistenceError {
	return &PersistenceError{Operation: operation, EquipmentTypeID: equipmentTypeID, Err: err}
}

// ConfigurationError represents a missing baseline registration or an invalid setting.
type ConfigurationError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(component, message string, err error) *ConfigurationError {
	return &ConfigurationError{Component: component, Message: message, Err: err}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsLoadError checks if an error is a source load error
func IsLoadError(err error) bool {
	return errors.Is(err, ErrLoad)
}

// IsSchemaError checks if an error is a schema violation
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsNumericParseError checks if an error is a numeric parse failure
func IsNumericParseError(err error) bool {
	return errors.Is(err, ErrNumericParse)
}

// IsPersistenceError checks if an error is a baseline store failure
func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapLoad wraps an error as a LoadError
func WrapLoad(source string, err error) error {
	if err == nil {
		return nil
	}
	return NewLoadError(source, "unreadable source", err)
}

// WrapPersistence wraps an error as a PersistenceError
func WrapPersistence(operation, equipmentTypeID string, err error) error {
	if err == nil {
		return nil
	}
	return NewPersistenceError(operation, equipmentTypeID, err)
}

// Messages renders a list of errors as human-readable strings, skipping nils.
func Messages(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, err.Error())
		}
	}
	return out
}
