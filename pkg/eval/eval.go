// Package eval evaluates Structured Text expressions against a set of
// variable bindings.
//
// Evaluation walks the AST produced by the parser package. Identifiers are
// resolved only through Bindings, so no name outside the caller's variables
// is reachable.
package eval

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zurustar/stsim/pkg/compiler/ast"
	"github.com/zurustar/stsim/pkg/compiler/parser"
	"github.com/zurustar/stsim/pkg/datatype"
)

var (
	// ErrUnknownIdentifier is returned when an identifier has no binding.
	ErrUnknownIdentifier = errors.New("unknown identifier")
	// ErrNoValue is returned when a bound identifier holds no value.
	ErrNoValue = errors.New("variable has no value")
	// ErrDivisionByZero is returned for division or modulo by zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrTypeMismatch is returned when an operator does not accept its operands.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrUnsupportedOperator is returned for operators outside the grammar.
	ErrUnsupportedOperator = errors.New("unsupported operator")
)

// EvaluationError reports an expression that could not be evaluated.
// Expr is the expression text as written in the source.
type EvaluationError struct {
	Expr string
	Err  error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("cannot evaluate %q: %v", e.Expr, e.Err)
}

// Unwrap returns the underlying cause.
func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Bindings resolves variable names to their current values.
type Bindings interface {
	Lookup(name string) (any, bool)
}

// Map is a Bindings backed by a plain map. Lookup tries the exact name first
// and then a case-insensitive match.
type Map map[string]any

// Lookup implements Bindings.
func (m Map) Lookup(name string) (any, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	// 大文字小文字違いの候補が複数ある場合も結果が安定するようにソートする
	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.EqualFold(k, name) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)
	return m[keys[0]], true
}

// Expr is a parsed expression together with its source text.
type Expr struct {
	Text string
	Node ast.Expression
}

// Compile parses text into an Expr. Syntax errors are returned as
// *EvaluationError so callers can treat them like any other evaluation
// failure.
func Compile(text string) (*Expr, error) {
	text = strings.TrimSpace(text)
	node, err := parser.ParseExpression(text)
	if err != nil {
		return nil, &EvaluationError{Expr: text, Err: err}
	}
	return &Expr{Text: text, Node: node}, nil
}

// Eval evaluates the expression against b.
func (e *Expr) Eval(b Bindings) (any, error) {
	v, err := evaluate(e.Node, b)
	if err != nil {
		return nil, &EvaluationError{Expr: e.Text, Err: err}
	}
	return v, nil
}

// Identifiers returns the distinct variable names the expression reads.
func (e *Expr) Identifiers() []string {
	return ast.Identifiers(e.Node)
}

// Evaluate parses and evaluates expr in one call.
func Evaluate(expr string, b Bindings) (any, error) {
	e, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return e.Eval(b)
}

// EvaluateExpression evaluates an already parsed node. Errors carry the
// node's canonical rendering as the expression text.
func EvaluateExpression(node ast.Expression, b Bindings) (any, error) {
	if node == nil {
		return nil, &EvaluationError{Err: errors.New("empty expression")}
	}
	v, err := evaluate(node, b)
	if err != nil {
		return nil, &EvaluationError{Expr: node.String(), Err: err}
	}
	return v, nil
}

// EvaluateCondition evaluates e and converts the result to a branch decision.
func EvaluateCondition(e *Expr, b Bindings) (bool, error) {
	v, err := e.Eval(b)
	if err != nil {
		return false, err
	}
	cond, err := Truthy(v)
	if err != nil {
		return false, &EvaluationError{Expr: e.Text, Err: err}
	}
	return cond, nil
}

func evaluate(node ast.Expression, b Bindings) (any, error) {
	switch n := node.(type) {
	case *ast.Identifier:
		return resolve(n.Value, b)
	case *ast.IntegerLiteral:
		return n.Value, nil
	case *ast.RealLiteral:
		return n.Value, nil
	case *ast.BooleanLiteral:
		return n.Value, nil
	case *ast.StringLiteral:
		return n.Value, nil
	case *ast.OpaqueLiteral:
		return n.Token.Literal, nil
	case *ast.PrefixExpression:
		right, err := evaluate(n.Right, b)
		if err != nil {
			return nil, err
		}
		return unaryOp(n.Operator, right)
	case *ast.InfixExpression:
		return infix(n, b)
	default:
		return nil, fmt.Errorf("unsupported expression %T", node)
	}
}

func resolve(name string, b Bindings) (any, error) {
	if b == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownIdentifier, name)
	}
	v, ok := b.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownIdentifier, name)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoValue, name)
	}
	return normalize(v), nil
}

// normalize maps Go numeric types onto the int64 / float64 runtime values.
func normalize(v any) any {
	if n, ok := datatype.ToInt64(v); ok {
		return n
	}
	if f, ok := v.(float32); ok {
		return float64(f)
	}
	return v
}

func infix(n *ast.InfixExpression, b Bindings) (any, error) {
	left, err := evaluate(n.Left, b)
	if err != nil {
		return nil, err
	}

	// AND / OR は左辺が BOOL なら短絡評価する
	if lb, ok := left.(bool); ok {
		switch n.Operator {
		case "AND":
			if !lb {
				return false, nil
			}
		case "OR":
			if lb {
				return true, nil
			}
		}
	}

	right, err := evaluate(n.Right, b)
	if err != nil {
		return nil, err
	}
	return binaryOp(n.Operator, left, right)
}
