// Package ast defines the syntax tree of Structured Text expressions.
package ast

import (
	"bytes"

	"github.com/zurustar/stsim/pkg/compiler/lexer"
)

type Node interface {
	TokenLiteral() string
	String() string
}

type Expression interface {
	Node
	expressionNode()
}

// Identifier
type Identifier struct {
	Token lexer.Token // lexer.TOKEN_IDENT
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

// IntegerLiteral
type IntegerLiteral struct {
	Token lexer.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) String() string       { return il.Token.Literal }

// RealLiteral
type RealLiteral struct {
	Token lexer.Token
	Value float64
}

func (rl *RealLiteral) expressionNode()      {}
func (rl *RealLiteral) TokenLiteral() string { return rl.Token.Literal }
func (rl *RealLiteral) String() string       { return rl.Token.Literal }

// BooleanLiteral: TRUE / FALSE
type BooleanLiteral struct {
	Token lexer.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) String() string {
	if bl.Value {
		return "TRUE"
	}
	return "FALSE"
}

// StringLiteral
type StringLiteral struct {
	Token lexer.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return "'" + sl.Value + "'" }

// OpaqueLiteral is a typed literal of a type the simulator does not model,
// such as T#5s. It evaluates to its source text.
type OpaqueLiteral struct {
	Token lexer.Token
}

func (ol *OpaqueLiteral) expressionNode()      {}
func (ol *OpaqueLiteral) TokenLiteral() string { return ol.Token.Literal }
func (ol *OpaqueLiteral) String() string       { return ol.Token.Literal }

// PrefixExpression: NOT x, -x
type PrefixExpression struct {
	Token    lexer.Token // The prefix token, e.g. NOT
	Operator string      // normalized operator ("NOT", "-", "+")
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(pe.Operator)
	if pe.Operator == "NOT" {
		out.WriteString(" ")
	}
	out.WriteString(pe.Right.String())
	out.WriteString(")")
	return out.String()
}

// InfixExpression: a + b, a AND b
type InfixExpression struct {
	Token    lexer.Token // The operator token
	Left     Expression
	Operator string // normalized operator ("AND", "MOD", "=", "<>", ...)
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString(" " + ie.Operator + " ")
	out.WriteString(ie.Right.String())
	out.WriteString(")")
	return out.String()
}

// Identifiers returns the names referenced by an expression, in order of
// first appearance.
func Identifiers(expr Expression) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(Expression)
	walk = func(e Expression) {
		switch n := e.(type) {
		case *Identifier:
			if !seen[n.Value] {
				seen[n.Value] = true
				names = append(names, n.Value)
			}
		case *PrefixExpression:
			walk(n.Right)
		case *InfixExpression:
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(expr)
	return names
}
