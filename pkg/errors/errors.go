// Package errors defines the error kinds surfaced by the pipeline engine.
//
// Errors fall into two classes. Configuration-class errors (tree conflicts,
// binding failures, type mismatches, structural lookups) indicate a problem an
// operator has to fix and are never retried. Access-class errors are data
// errors raised by codecs and storage backends; callers may choose to recover
// from them per element when streaming.
package errors

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrTreeConflict indicates that two composed stages declare incompatible
	// resources at the same tree path.
	ErrTreeConflict = errors.New("conflicting resource declarations")

	// ErrBinding indicates a malformed location template or an unresolvable
	// placeholder discovered while binding a tree to its locations.
	ErrBinding = errors.New("location binding failed")

	// ErrTypeMismatch indicates that a resource's declared type disagrees with
	// the accessor bound in the physical tree.
	ErrTypeMismatch = errors.New("resource type mismatch")

	// ErrAccess indicates that an underlying read or write failed (bad bytes,
	// missing object, I/O fault).
	ErrAccess = errors.New("resource access failed")

	// ErrLookup indicates that a declared path is absent from a tree.
	ErrLookup = errors.New("resource path not found")
)

// Error codes carried by structured errors.
const (
	CodeTreeConflict = "TREE_CONFLICT"
	CodeBinding      = "BINDING"
	CodeTypeMismatch = "TYPE_MISMATCH"
	CodeAccess       = "ACCESS"
	CodeLookup       = "LOOKUP"
)

// Error represents a structured engine error
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Path is the logical tree path the error refers to, if any
	Path string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error, if any
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("[%s] %s: %s: %v", e.Code, e.Path, e.Message, e.Err)
	case e.Path != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new structured engine error
func NewError(code, path, message string, err error) *Error {
	return &Error{
		Code:    code,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// TreeConflict reports two incompatible declarations at the same path.
func TreeConflict(path, detail string) *Error {
	return NewError(CodeTreeConflict, path, detail, ErrTreeConflict)
}

// Binding reports a malformed template or unresolvable placeholder for path.
func Binding(path, detail string, err error) *Error {
	if err == nil {
		err = ErrBinding
	}
	return NewError(CodeBinding, path, detail, err)
}

// TypeMismatch reports a declared-versus-bound type disagreement for path.
// op names the requested operation ("read" or "write").
func TypeMismatch(path, op string, want, got reflect.Type) *Error {
	return NewError(CodeTypeMismatch, path,
		fmt.Sprintf("%s requested as %v but bound as %v", op, want, got),
		ErrTypeMismatch)
}

// Access wraps an underlying codec or storage failure for path.
func Access(path string, err error) *Error {
	return NewError(CodeAccess, path, "access failed", err)
}

// Lookup reports a path missing from a tree.
func Lookup(path string) *Error {
	return NewError(CodeLookup, path, "no resource declared at path", ErrLookup)
}

// IsTreeConflict checks if an error is a tree conflict error
func IsTreeConflict(err error) bool {
	return errors.Is(err, ErrTreeConflict)
}

// IsBinding checks if an error is a binding error
func IsBinding(err error) bool {
	return errors.Is(err, ErrBinding) || hasCode(err, CodeBinding)
}

// IsTypeMismatch checks if an error is a type mismatch error
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

// IsAccess checks if an error is an access (data-class) error
func IsAccess(err error) bool {
	return errors.Is(err, ErrAccess) || hasCode(err, CodeAccess)
}

// IsLookup checks if an error is a structural lookup error
func IsLookup(err error) bool {
	return errors.Is(err, ErrLookup)
}

// IsConfiguration reports whether err belongs to the configuration class:
// tree conflicts, binding errors, type mismatches and structural lookups.
func IsConfiguration(err error) bool {
	return IsTreeConflict(err) || IsBinding(err) || IsTypeMismatch(err) || IsLookup(err)
}

func hasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
