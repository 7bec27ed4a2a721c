// Package errors provides structured error handling for Treescan
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeData represents data decoding errors
	ErrorTypeData ErrorType = "data"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeNoTree represents a missing tree in a file
	ErrorTypeNoTree ErrorType = "no_tree"
	// ErrorTypeCatalog represents missing or undecodable streamer metadata
	ErrorTypeCatalog ErrorType = "catalog_unavailable"
	// ErrorTypeSchemaMismatch represents a file whose tree structure
	// disagrees with the discovered schema
	ErrorTypeSchemaMismatch ErrorType = "schema_mismatch"
	// ErrorTypeUnsupported represents a declared type that cannot be mapped
	ErrorTypeUnsupported ErrorType = "unsupported_type"
	// ErrorTypeExhausted represents reading past the end of a row producer
	ErrorTypeExhausted ErrorType = "exhausted_iterator"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// NewNoTree creates a no_tree error. treeName may be empty when no
// specific tree was requested and the file simply contained none.
func NewNoTree(treeName string) *Error {
	var msg string
	if treeName == "" {
		msg = "no tree found in file"
	} else {
		msg = fmt.Sprintf("tree %q not found in file", treeName)
	}
	e := New(ErrorTypeNoTree, msg)
	if treeName != "" {
		e = e.WithDetail("tree", treeName)
	}
	return e
}

// TreeName extracts the requested tree name from a no_tree error.
// The second return is false when the error is not a no_tree error or
// when no specific tree was requested.
func TreeName(err error) (string, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Type != ErrorTypeNoTree {
		return "", false
	}
	name, ok := e.Details["tree"].(string)
	return name, ok && name != ""
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
