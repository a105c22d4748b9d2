// Package compiler provides the compilation pipeline for Structured Text
// program units. This file defines the CompileError type for reporting
// problems together with the surrounding source.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zurustar/stsim/pkg/program"
)

// Phases reported in CompileError.
const (
	PhaseDeclaration = "declaration"
	PhaseCompiler    = "compiler"
)

// CompileError represents a diagnostic with location information.
// Compile errors never stop a simulation: they describe statements that
// will be reported as diagnostics when executed, or declarations that were
// skipped.
type CompileError struct {
	// Phase indicates which phase generated the error: "declaration" or
	// "compiler".
	Phase string

	// Message is the human-readable error description.
	Message string

	// Line is the 1-indexed line number where the error occurred.
	Line int

	// Column is the 1-indexed column number, 0 when unknown.
	Column int

	// Context contains the source code around the error location with a
	// pointer (^) indicating the error column.
	Context string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s error at line %d, column %d: %s\n%s",
			e.Phase, e.Line, e.Column, e.Message, e.Context)
	}
	return fmt.Sprintf("%s error at line %d, column %d: %s",
		e.Phase, e.Line, e.Column, e.Message)
}

// NewCompilerErrorWithContext creates a new CompileError for a malformed
// statement with source context.
func NewCompilerErrorWithContext(message string, line, column int, source string) *CompileError {
	return &CompileError{
		Phase:   PhaseCompiler,
		Message: message,
		Line:    line,
		Column:  column,
		Context: GenerateErrorContext(source, line, column),
	}
}

// NewDeclarationError converts a declaration warning into a CompileError
// with source context.
func NewDeclarationError(w program.Warning, source string) *CompileError {
	return &CompileError{
		Phase:   PhaseDeclaration,
		Message: w.Message,
		Line:    w.Line,
		Context: GenerateErrorContext(source, w.Line, 0),
	}
}

// IsCompileError reports whether err is a CompileError and returns it.
func IsCompileError(err error) (*CompileError, bool) {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// GenerateErrorContext generates source code context around an error location.
// It includes 2 lines before and 2 lines after the error line, with line numbers
// and a pointer (^) indicating the error column when the column is known.
//
// Example output:
//
//	  2 | IF a > 10 THEN
//	  3 |     b := 1;
//	> 4 | ELSIF a > THEN
//	    |           ^
//	  5 |     b := 2;
//	  6 | END_IF;
func GenerateErrorContext(source string, line, column int) string {
	if source == "" || line <= 0 {
		return ""
	}

	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	if line > len(lines) {
		return ""
	}

	// 前後2行ずつ表示する
	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}

	var buf strings.Builder
	lineNumWidth := len(fmt.Sprintf("%d", end))

	for i := start; i < end; i++ {
		lineNum := i + 1
		if lineNum == line {
			buf.WriteString(fmt.Sprintf("> %*d | %s\n", lineNumWidth, lineNum, lines[i]))
			if column > 0 {
				pointerIndent := 2 + lineNumWidth + 3 // "> " + lineNumWidth + " | "
				buf.WriteString(fmt.Sprintf("%s%s^\n", strings.Repeat(" ", pointerIndent), strings.Repeat(" ", column-1)))
			}
		} else {
			buf.WriteString(fmt.Sprintf("  %*d | %s\n", lineNumWidth, lineNum, lines[i]))
		}
	}

	return buf.String()
}
