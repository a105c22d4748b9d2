package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/zurustar/stsim/pkg/eval"
	"github.com/zurustar/stsim/pkg/opcode"
	"github.com/zurustar/stsim/pkg/program"
)

func lines(codes ...string) []program.Line {
	var out []program.Line
	for i, c := range codes {
		out = append(out, program.Line{Number: i + 1, Code: c, Original: "  " + c})
	}
	return out
}

// TestCompileClassification tests how each statement form is classified.
func TestCompileClassification(t *testing.T) {
	tests := []struct {
		code   string
		cmd    opcode.Cmd
		cond   string
		target string
		value  string
	}{
		{"IF a > 10 THEN", opcode.If, "a > 10", "", ""},
		{"if x and not y then", opcode.If, "x and not y", "", ""},
		{"ELSIF a > 5 THEN", opcode.Elsif, "a > 5", "", ""},
		{"ELSE", opcode.Else, "", "", ""},
		{"END_IF;", opcode.EndIf, "", "", ""},
		{"end_if", opcode.EndIf, "", "", ""},
		{"b := 1;", opcode.Assign, "", "b", "1"},
		{"running_time := running_time + 1;", opcode.Assign, "", "running_time", "running_time + 1"},
		{"flag:=a=b;", opcode.Assign, "", "flag", "a=b"},
		{"timer(IN := start, PT := T#5s);", opcode.Other, "", "", ""},
		{"FOR i := 1 TO 10 DO", opcode.Other, "", "", ""},
		{"RETURN;", opcode.Other, "", "", ""},
		{"arr[1] := 5;", opcode.Other, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			ops, errs := New().Compile(lines(tt.code))
			if len(errs) != 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			if len(ops) != 1 {
				t.Fatalf("expected 1 opcode, got %d", len(ops))
			}
			op := ops[0]
			if op.Cmd != tt.cmd {
				t.Errorf("Cmd = %s, want %s", op.Cmd, tt.cmd)
			}
			if op.Code != tt.code || op.Line != 1 || op.Index != 0 {
				t.Errorf("location = %d/%d %q", op.Index, op.Line, op.Code)
			}
			if tt.cond != "" && (op.Cond == nil || op.Cond.Text != tt.cond) {
				t.Errorf("Cond = %v, want %q", op.Cond, tt.cond)
			}
			if op.Target != tt.target {
				t.Errorf("Target = %q, want %q", op.Target, tt.target)
			}
			if tt.value != "" && (op.Value == nil || op.Value.Text != tt.value) {
				t.Errorf("Value = %v, want %q", op.Value, tt.value)
			}
		})
	}
}

// TestCompileMalformed tests that malformed statements keep their kind and carry an error.
func TestCompileMalformed(t *testing.T) {
	tests := []struct {
		code     string
		cmd      opcode.Cmd
		contains string
	}{
		{"IF a > 10", opcode.If, "IF without THEN"},
		{"IF THEN", opcode.If, "empty expression"},
		{"ELSIF a > THEN", opcode.Elsif, "missing right operand"},
		{"IF a THEN b := 1", opcode.If, "after THEN"},
		{"ELSE b := 2", opcode.Else, "after ELSE"},
		{"END_IF x", opcode.EndIf, "after END_IF"},
		{"x := ;", opcode.Assign, "empty expression"},
		{"x := (1 + 2;", opcode.Assign, "expected )"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c := New()
			ops, errs := c.Compile(lines(tt.code))
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %v", errs)
			}
			op := ops[0]
			if op.Cmd != tt.cmd {
				t.Errorf("Cmd = %s, want %s", op.Cmd, tt.cmd)
			}
			if op.Err == nil || !strings.Contains(op.Err.Error(), tt.contains) {
				t.Errorf("Err = %v, want to contain %q", op.Err, tt.contains)
			}
			var ee *eval.EvaluationError
			if !errors.As(op.Err, &ee) {
				t.Errorf("Err should be *eval.EvaluationError, got %T", op.Err)
			}
			if len(c.Errors()) != 1 || c.Errors()[0].Line != 1 {
				t.Errorf("Errors() = %v", c.Errors())
			}
		})
	}
}

// TestCompileErrorColumn tests that columns point into the physical line.
func TestCompileErrorColumn(t *testing.T) {
	body := []program.Line{{Number: 7, Code: "ELSIF a > THEN", Original: "    ELSIF a > THEN"}}
	_, errs := New().Compile(body)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	var ce *CompilerError
	if !errors.As(errs[0], &ce) {
		t.Fatalf("expected *CompilerError, got %T", errs[0])
	}
	// "    ELSIF a > THEN": the '>' operator is at column 13
	if ce.Line != 7 || ce.Column != 13 {
		t.Errorf("location = %d:%d, want 7:13", ce.Line, ce.Column)
	}
}

// TestCompileKeepsOneOpCodePerLine tests index bookkeeping.
func TestCompileKeepsOneOpCodePerLine(t *testing.T) {
	ops, _ := New().Compile(lines("IF x THEN", "y := ;", "END_IF;", "z := 1;"))
	if len(ops) != 4 {
		t.Fatalf("expected 4 opcodes, got %d", len(ops))
	}
	for i, op := range ops {
		if op.Index != i || op.Line != i+1 {
			t.Errorf("op %d has Index %d Line %d", i, op.Index, op.Line)
		}
	}
	if !ops[0].IsControl() || ops[1].IsControl() || !ops[2].IsControl() {
		t.Error("IsControl misclassified")
	}
}
