// Package vm provides error handling for the scan-cycle simulator.
package vm

import (
	"fmt"
)

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	// Line-local errors - recorded on the step, execution continues
	ErrorEvaluation  ErrorType = "EVALUATION_ERROR"
	ErrorControlFlow ErrorType = "CONTROL_FLOW_ERROR"

	// Run-aborting errors
	ErrorInvalidArgument ErrorType = "INVALID_ARGUMENT"
	ErrorFatal           ErrorType = "FATAL_SIMULATION_ERROR"
)

// RuntimeError represents a diagnostic raised while simulating a program.
type RuntimeError struct {
	Type    ErrorType
	Message string
	Line    int    // Line number if available, -1 otherwise
	File    string // File name if available
	Context string // statement text
	Err     error  // underlying cause, if any
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Line >= 0 && e.File != "" {
		return fmt.Sprintf("[%s] %s at %s:%d", e.Type, e.Message, e.File, e.Line)
	}
	if e.Line >= 0 {
		return fmt.Sprintf("[%s] %s at line %d", e.Type, e.Message, e.Line)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the error aborts the whole run.
func (e *RuntimeError) IsFatal() bool {
	switch e.Type {
	case ErrorFatal, ErrorInvalidArgument:
		return true
	default:
		return false
	}
}

// NewRuntimeError creates a new RuntimeError.
func NewRuntimeError(errType ErrorType, message string) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: message,
		Line:    -1,
	}
}

// NewRuntimeErrorWithLine creates a new RuntimeError with line information.
func NewRuntimeErrorWithLine(errType ErrorType, message string, line int) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: message,
		Line:    line,
	}
}

// NewRuntimeErrorWithContext creates a new RuntimeError with full context.
func NewRuntimeErrorWithContext(errType ErrorType, message, file string, line int, context string) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: message,
		File:    file,
		Line:    line,
		Context: context,
	}
}

// NewControlFlowError creates an error for ELSIF, ELSE or END_IF without a
// matching IF.
func NewControlFlowError(keyword string, line int) *RuntimeError {
	return NewRuntimeErrorWithLine(ErrorControlFlow, fmt.Sprintf("%s without matching IF", keyword), line)
}

// NewFatalError creates an error for an unexpected failure of the run loop.
func NewFatalError(recovered any) *RuntimeError {
	err := NewRuntimeError(ErrorFatal, fmt.Sprintf("simulation aborted: %v", recovered))
	if e, ok := recovered.(error); ok {
		err.Err = e
	}
	return err
}
