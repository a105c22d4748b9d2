package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/zurustar/stsim/pkg/compiler/ast"
)

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"a * b + c", "((a * b) + c)"},
		{"-a * b", "((-a) * b)"},
		{"NOT x AND y", "((NOT x) AND y)"},
		{"not x or y and z", "((NOT x) OR (y AND z))"},
		{"a > 10 AND b < 5", "((a > 10) AND (b < 5))"},
		{"a = b OR c <> d", "((a = b) OR (c <> d))"},
		{"a XOR b OR c", "((a XOR b) OR c)"},
		{"a & b", "(a AND b)"},
		{"a MOD 3 = 0", "((a MOD 3) = 0)"},
		{"n mod 2", "(n MOD 2)"},
		{"(a + b) * c", "((a + b) * c)"},
		{"2 ** 3 * 4", "((2 ** 3) * 4)"},
		{"a - b - c", "((a - b) - c)"},
		{"a <= b", "(a <= b)"},
		{"TRUE", "TRUE"},
		{"false", "FALSE"},
		{"x (* comment *) + 1", "(x + 1)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := ParseExpression(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := expr.String(); got != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, got)
			}
		})
	}
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		input string
		check func(ast.Expression) bool
	}{
		{"42", func(e ast.Expression) bool { l, ok := e.(*ast.IntegerLiteral); return ok && l.Value == 42 }},
		{"16#FF", func(e ast.Expression) bool { l, ok := e.(*ast.IntegerLiteral); return ok && l.Value == 255 }},
		{"80.5", func(e ast.Expression) bool { l, ok := e.(*ast.RealLiteral); return ok && l.Value == 80.5 }},
		{"'abc'", func(e ast.Expression) bool { l, ok := e.(*ast.StringLiteral); return ok && l.Value == "abc" }},
		{"INT#7", func(e ast.Expression) bool { l, ok := e.(*ast.IntegerLiteral); return ok && l.Value == 7 }},
		{"BOOL#TRUE", func(e ast.Expression) bool { l, ok := e.(*ast.BooleanLiteral); return ok && l.Value }},
		{"REAL#2.5", func(e ast.Expression) bool { l, ok := e.(*ast.RealLiteral); return ok && l.Value == 2.5 }},
		{"T#5s", func(e ast.Expression) bool { _, ok := e.(*ast.OpaqueLiteral); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := ParseExpression(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(expr) {
				t.Errorf("unexpected node %T (%s)", expr, expr.String())
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input    string
		contains string
	}{
		{"", "empty expression"},
		{"a +", "missing right operand"},
		{"(a + b", "expected )"},
		{"a b", "unexpected"},
		{"a := 1", "unexpected"},
		{"x THEN", "unexpected"},
		{"foo(1)", "unexpected"},
		{"a[1]", "unexpected"},
		{"a.b", "unexpected"},
		{"@", "illegal character"},
		{"BOOL#maybe", "could not parse"},
		{"* 2", "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := ParseExpression(tt.input)
			if err == nil {
				t.Fatalf("expected error, got %v", expr)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should contain %q", err.Error(), tt.contains)
			}
			var pe *ParserError
			if !errors.As(err, &pe) {
				t.Errorf("error should be *ParserError, got %T", err)
			}
		})
	}
}

func TestParserErrorLocation(t *testing.T) {
	_, err := ParseExpression("a AND\n  ) ")
	var pe *ParserError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParserError, got %v", err)
	}
	if pe.Line != 2 || pe.Column != 3 {
		t.Errorf("location = %d:%d, want 2:3", pe.Line, pe.Column)
	}
}
