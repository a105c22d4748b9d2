package vm

import (
	"errors"
	"strings"
	"testing"

	"github.com/zurustar/stsim/pkg/eval"
)

func TestRuntimeError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *RuntimeError
		contains []string
	}{
		{
			name:     "basic error",
			err:      NewRuntimeError(ErrorFatal, "boom"),
			contains: []string{"FATAL_SIMULATION_ERROR", "boom"},
		},
		{
			name:     "error with line",
			err:      NewRuntimeErrorWithLine(ErrorEvaluation, "cannot evaluate", 42),
			contains: []string{"EVALUATION_ERROR", "cannot evaluate", "line 42"},
		},
		{
			name:     "error with context",
			err:      NewRuntimeErrorWithContext(ErrorControlFlow, "END_IF without matching IF", "motor.st", 10, "END_IF;"),
			contains: []string{"CONTROL_FLOW_ERROR", "END_IF without matching IF", "motor.st:10"},
		},
		{
			name:     "control flow helper",
			err:      NewControlFlowError("ELSIF", 3),
			contains: []string{"CONTROL_FLOW_ERROR", "ELSIF without matching IF", "line 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(errStr, s) {
					t.Errorf("error string %q should contain %q", errStr, s)
				}
			}
		})
	}
}

func TestRuntimeError_IsFatal(t *testing.T) {
	tests := []struct {
		name    string
		errType ErrorType
		fatal   bool
	}{
		{"fatal simulation error is fatal", ErrorFatal, true},
		{"invalid argument is fatal", ErrorInvalidArgument, true},
		{"evaluation error is not fatal", ErrorEvaluation, false},
		{"control flow error is not fatal", ErrorControlFlow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRuntimeError(tt.errType, "test")
			if err.IsFatal() != tt.fatal {
				t.Errorf("IsFatal() = %v, want %v", err.IsFatal(), tt.fatal)
			}
		})
	}
}

func TestRuntimeError_Unwrap(t *testing.T) {
	cause := &eval.EvaluationError{Expr: "1 / 0", Err: eval.ErrDivisionByZero}
	err := NewRuntimeErrorWithLine(ErrorEvaluation, cause.Error(), 7)
	err.Err = cause

	var ee *eval.EvaluationError
	if !errors.As(err, &ee) {
		t.Fatal("errors.As should find the EvaluationError")
	}
	if !errors.Is(err, eval.ErrDivisionByZero) {
		t.Error("errors.Is should reach the sentinel")
	}
}

func TestNewFatalError(t *testing.T) {
	err := NewFatalError("index out of range")
	if !err.IsFatal() || err.Line != -1 {
		t.Errorf("unexpected fatal error: %+v", err)
	}
	if !strings.Contains(err.Error(), "index out of range") {
		t.Errorf("message lost: %v", err)
	}

	cause := errors.New("inner")
	if !errors.Is(NewFatalError(cause), cause) {
		t.Error("recovered error should be wrapped")
	}
}
