package saint

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("saint: item not found")

	// ErrConfig is returned when the controller DSL is misused.
	// Configuration errors are fatal at boot.
	ErrConfig = errors.New("saint: invalid configuration")

	// ErrCapability is returned when a controller prohibits an operation
	// (create, update or delete).
	ErrCapability = errors.New("saint: operation not permitted")

	// ErrReadonly is returned when attaching or detaching items of a
	// readonly association.
	ErrReadonly = errors.New("saint: association is readonly")
)

// NotFoundError represents an error when a row is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("saint: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("saint: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the model label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given model.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConfigError reports a misuse of the controller DSL, for example
// declaring a relation before the model is set.
type ConfigError struct {
	Controller string // Controller name
	Method     string // DSL method that was misused
	Message    string
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("saint: ")
	if e.Controller != "" {
		b.WriteString(e.Controller)
		b.WriteString(": ")
	}
	if e.Method != "" {
		b.WriteString(e.Method)
		b.WriteString(" error: ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError returns a new ConfigError.
func NewConfigError(controller, method, format string, args ...any) *ConfigError {
	return &ConfigError{
		Controller: controller,
		Method:     method,
		Message:    fmt.Sprintf(format, args...),
	}
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}

// CapabilityError is returned when a controller has a capability removed.
type CapabilityError struct {
	Controller string
	Capability string // create, update or delete
}

// Error returns the error string.
func (e *CapabilityError) Error() string {
	return fmt.Sprintf("saint: %s is not permitted on %s", e.Capability, e.Controller)
}

// Is reports whether the target matches ErrCapability.
func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapability
}

// ValidationError represents a validation error for a column value.
type ValidationError struct {
	Name string // Column name
	Err  error  // Underlying validation error
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError for the given column.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "saint: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("saint: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors so errors.Is and errors.As
// look into every one of them.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

// MutationError wraps a persistence error with additional context.
type MutationError struct {
	Model string // Model being mutated
	Op    string // Operation (e.g., "save", "delete", "destroy")
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("saint: %s %s: %v", e.Op, e.Model, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(model, op string, err error) *MutationError {
	return &MutationError{Model: model, Op: op, Err: err}
}

// Messages flattens err into the human readable messages shown to the
// user. Aggregates and joined errors contribute one message per member,
// validation errors render as "column: reason" and mutation wrappers are
// peeled off so the user sees the database message only.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var msgs []string
	switch e := err.(type) {
	case *ValidationError:
		return []string{e.Error()}
	case *MutationError:
		return Messages(e.Err)
	case interface{ Unwrap() []error }:
		for _, err := range e.Unwrap() {
			msgs = append(msgs, Messages(err)...)
		}
		return msgs
	}
	return []string{err.Error()}
}
