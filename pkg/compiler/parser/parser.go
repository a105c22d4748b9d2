// Package parser provides syntax analysis for Structured Text expressions.
// It is a Pratt parser over a closed grammar: literals, identifiers,
// parentheses, unary - + NOT and the binary arithmetic, relational and
// boolean operators. Nothing else is accepted.
package parser

import (
	"fmt"
	"strings"

	"github.com/zurustar/stsim/pkg/compiler/ast"
	"github.com/zurustar/stsim/pkg/compiler/lexer"
	"github.com/zurustar/stsim/pkg/datatype"
)

// Precedence levels for operators.
const (
	_ int = iota
	LOWEST
	OR          // OR
	XOR         // XOR
	AND         // AND, &
	EQUALS      // = <>
	LESSGREATER // < > <= >=
	SUM         // + -
	PRODUCT     // * / MOD
	POWER       // **
	PREFIX      // -X or NOT X
)

var precedences = map[lexer.TokenType]int{
	lexer.TOKEN_OR:        OR,
	lexer.TOKEN_XOR:       XOR,
	lexer.TOKEN_AND:       AND,
	lexer.TOKEN_AMPERSAND: AND,
	lexer.TOKEN_EQ:        EQUALS,
	lexer.TOKEN_NEQ:       EQUALS,
	lexer.TOKEN_LT:        LESSGREATER,
	lexer.TOKEN_LTE:       LESSGREATER,
	lexer.TOKEN_GT:        LESSGREATER,
	lexer.TOKEN_GTE:       LESSGREATER,
	lexer.TOKEN_PLUS:      SUM,
	lexer.TOKEN_MINUS:     SUM,
	lexer.TOKEN_ASTERISK:  PRODUCT,
	lexer.TOKEN_SLASH:     PRODUCT,
	lexer.TOKEN_MOD:       PRODUCT,
	lexer.TOKEN_POWER:     POWER,
}

// ParserError represents a syntax error with its location in the fragment.
type ParserError struct {
	Message string
	Line    int
	Column  int
}

// Error implements the error interface.
func (e *ParserError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Line, e.Column)
}

// Parser parses a Structured Text expression into an AST.
type Parser struct {
	l      *lexer.Lexer
	errors []error

	curToken  lexer.Token
	peekToken lexer.Token

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// New creates a new Parser.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		errors: []error{},
	}

	// Register prefix parse functions
	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.TOKEN_IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.TOKEN_INT, p.parseIntegerLiteral)
	p.registerPrefix(lexer.TOKEN_REAL, p.parseRealLiteral)
	p.registerPrefix(lexer.TOKEN_STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.TOKEN_TYPED, p.parseTypedLiteral)
	p.registerPrefix(lexer.TOKEN_TRUE, p.parseBooleanLiteral)
	p.registerPrefix(lexer.TOKEN_FALSE, p.parseBooleanLiteral)
	p.registerPrefix(lexer.TOKEN_NOT, p.parsePrefixExpression)
	p.registerPrefix(lexer.TOKEN_MINUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.TOKEN_PLUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.TOKEN_LPAREN, p.parseGroupedExpression)

	// Register infix parse functions
	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	for tokenType := range precedences {
		p.registerInfix(tokenType, p.parseInfixExpression)
	}

	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()

	return p
}

// ParseExpression parses input as one complete expression.
func ParseExpression(input string) (ast.Expression, error) {
	p := New(lexer.New(input))
	expr := p.ParseExpression()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return expr, nil
}

// Errors returns the parser errors.
func (p *Parser) Errors() []error {
	return p.errors
}

// ParseExpression parses the whole token stream as a single expression.
// Trailing tokens are reported as errors.
func (p *Parser) ParseExpression() ast.Expression {
	if p.curTokenIs(lexer.TOKEN_EOF) {
		p.addError("empty expression", p.curToken)
		return nil
	}

	expr := p.parseExpression(LOWEST)
	if len(p.errors) > 0 {
		return nil
	}

	if !p.peekTokenIs(lexer.TOKEN_EOF) {
		p.addError(fmt.Sprintf("unexpected %s", describe(p.peekToken)), p.peekToken)
		return nil
	}

	return expr
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	if p.curTokenIs(lexer.TOKEN_ILLEGAL) {
		p.addError(fmt.Sprintf("illegal character %q", p.curToken.Literal), p.curToken)
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for !p.peekTokenIs(lexer.TOKEN_EOF) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	value, err := datatype.ParseInteger(p.curToken.Literal)
	if err != nil {
		p.addError(fmt.Sprintf("could not parse %q as integer", p.curToken.Literal), p.curToken)
		return nil
	}
	return &ast.IntegerLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseRealLiteral() ast.Expression {
	value, err := datatype.ParseReal(p.curToken.Literal)
	if err != nil {
		p.addError(fmt.Sprintf("could not parse %q as real", p.curToken.Literal), p.curToken)
		return nil
	}
	return &ast.RealLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(lexer.TOKEN_TRUE)}
}

// parseTypedLiteral handles INT#5, REAL#1.5, BOOL#TRUE and opaque literals
// such as T#5s.
func (p *Parser) parseTypedLiteral() ast.Expression {
	typeName, text, _ := datatype.SplitTyped(p.curToken.Literal)
	t := datatype.Lookup(typeName)

	switch t.Kind {
	case datatype.KindBool:
		switch strings.ToUpper(text) {
		case "TRUE", "1":
			return &ast.BooleanLiteral{Token: p.curToken, Value: true}
		case "FALSE", "0":
			return &ast.BooleanLiteral{Token: p.curToken, Value: false}
		}
	case datatype.KindInt:
		if n, err := datatype.ParseInteger(text); err == nil {
			if v, err := t.Coerce(n); err == nil {
				return &ast.IntegerLiteral{Token: p.curToken, Value: v.(int64)}
			}
		}
	case datatype.KindReal:
		if f, err := datatype.ParseReal(text); err == nil {
			return &ast.RealLiteral{Token: p.curToken, Value: f}
		}
	default:
		return &ast.OpaqueLiteral{Token: p.curToken}
	}

	p.addError(fmt.Sprintf("could not parse %q as %s", p.curToken.Literal, t.Name), p.curToken)
	return nil
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: operatorName(p.curToken),
	}

	p.nextToken()
	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: operatorName(p.curToken),
		Left:     left,
	}

	precedence := p.curPrecedence()
	if p.peekTokenIs(lexer.TOKEN_EOF) {
		p.addError(fmt.Sprintf("missing right operand for %s", expression.Operator), p.curToken)
		return nil
	}
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	open := p.curToken
	p.nextToken()

	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}

	if !p.peekTokenIs(lexer.TOKEN_RPAREN) {
		p.addError(fmt.Sprintf("expected ) to close ( at column %d, got %s", open.Column, describe(p.peekToken)), p.peekToken)
		return nil
	}
	p.nextToken()

	return exp
}

// operatorName normalizes operator spellings: keywords are upper-cased and
// '&' becomes AND.
func operatorName(tok lexer.Token) string {
	if tok.Type == lexer.TOKEN_AMPERSAND {
		return "AND"
	}
	if tok.Type.IsKeyword() {
		return tok.Type.String()
	}
	return tok.Literal
}

// describe renders a token for error messages.
func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TOKEN_EOF:
		return "end of expression"
	case lexer.TOKEN_IDENT, lexer.TOKEN_INT, lexer.TOKEN_REAL, lexer.TOKEN_TYPED:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	default:
		return fmt.Sprintf("%q", tok.Literal)
	}
}

// Helper functions
func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()

	// Skip comments in both curToken and peekToken
	for p.curToken.Type == lexer.TOKEN_COMMENT {
		p.curToken = p.peekToken
		p.peekToken = p.l.NextToken()
	}

	for p.peekToken.Type == lexer.TOKEN_COMMENT {
		p.peekToken = p.l.NextToken()
	}
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) noPrefixParseFnError(tok lexer.Token) {
	if tok.Type == lexer.TOKEN_EOF {
		p.addError("unexpected end of expression", tok)
		return
	}
	p.addError(fmt.Sprintf("unexpected %s", describe(tok)), tok)
}

func (p *Parser) addError(msg string, tok lexer.Token) {
	p.errors = append(p.errors, &ParserError{Message: msg, Line: tok.Line, Column: tok.Column})
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}
