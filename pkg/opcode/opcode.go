// Package opcode defines the statement instructions executed by the VM.
// The compiler classifies every body line of a program into one OpCode,
// and the VM walks the OpCode sequence once per scan cycle.
package opcode

import (
	"fmt"

	"github.com/zurustar/stsim/pkg/eval"
)

// Cmd represents an OpCode command type.
type Cmd string

const (
	// If opens a conditional chain.
	// Cond: the condition
	If Cmd = "If"

	// Elsif is an alternative branch of the active chain.
	// Cond: the condition
	Elsif Cmd = "Elsif"

	// Else is the fallback branch of the active chain.
	Else Cmd = "Else"

	// EndIf closes the active chain.
	EndIf Cmd = "EndIf"

	// Assign stores the value of an expression into a variable.
	// Target: variable name, Value: the expression
	Assign Cmd = "Assign"

	// Other is any statement the VM records without executing
	// (loops, calls, timers, RETURN, ...).
	Other Cmd = "Other"
)

// OpCode is one classified body statement.
type OpCode struct {
	Cmd   Cmd
	Index int    // position in Program.Body
	Line  int    // 1-based source line
	Code  string // statement text as written

	Cond   *eval.Expr // If, Elsif
	Target string     // Assign
	Value  *eval.Expr // Assign

	// Err is set when the statement is malformed, for example an IF without
	// THEN or an expression that does not parse. The VM reports it as a
	// diagnostic when the statement is reached.
	Err error
}

// IsControl reports whether the opcode belongs to IF chain control.
func (op OpCode) IsControl() bool {
	switch op.Cmd {
	case If, Elsif, Else, EndIf:
		return true
	default:
		return false
	}
}

// String returns a short description for debugging.
func (op OpCode) String() string {
	switch op.Cmd {
	case If, Elsif:
		if op.Cond != nil {
			return fmt.Sprintf("%s(%s)", op.Cmd, op.Cond.Text)
		}
	case Assign:
		if op.Value != nil {
			return fmt.Sprintf("%s(%s := %s)", op.Cmd, op.Target, op.Value.Text)
		}
	}
	return fmt.Sprintf("%s[%s]", op.Cmd, op.Code)
}
