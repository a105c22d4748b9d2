// Package compiler classifies the body statements of a parsed program into
// OpCode instructions for the VM.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zurustar/stsim/pkg/compiler/lexer"
	"github.com/zurustar/stsim/pkg/compiler/parser"
	"github.com/zurustar/stsim/pkg/eval"
	"github.com/zurustar/stsim/pkg/opcode"
	"github.com/zurustar/stsim/pkg/program"
)

// CompilerError represents a malformed statement.
// It includes the location of the problem in the source.
type CompilerError struct {
	Message string
	Line    int
	Column  int
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("compiler error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("compiler error: %s", e.Message)
}

// NewCompilerError creates a new CompilerError with the given message and location.
func NewCompilerError(message string, line, column int) *CompilerError {
	return &CompilerError{
		Message: message,
		Line:    line,
		Column:  column,
	}
}

// Compiler generates OpCode from program body lines.
type Compiler struct {
	errors []*CompilerError
}

// New creates a new Compiler.
func New() *Compiler {
	return &Compiler{
		errors: []*CompilerError{},
	}
}

// Compile classifies every body line. Malformed statements still produce an
// OpCode with Err set, so the returned slice always has one entry per line;
// the same problems are also returned as errors.
func (c *Compiler) Compile(body []program.Line) ([]opcode.OpCode, []error) {
	opcodes := make([]opcode.OpCode, 0, len(body))
	for i, line := range body {
		opcodes = append(opcodes, c.compileLine(i, line))
	}

	var errs []error
	for _, e := range c.errors {
		errs = append(errs, e)
	}
	return opcodes, errs
}

// Errors returns the list of compilation errors.
func (c *Compiler) Errors() []*CompilerError {
	return c.errors
}

// compileLine classifies one statement.
func (c *Compiler) compileLine(index int, line program.Line) opcode.OpCode {
	op := opcode.OpCode{
		Cmd:   opcode.Other,
		Index: index,
		Line:  line.Number,
		Code:  line.Code,
	}

	// 末尾の ';' は文の区切りなので取り除く
	code := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line.Code), ";"))
	tokens := lexer.Tokenize(code)
	if len(tokens) == 0 || tokens[0].Type == lexer.TOKEN_EOF {
		return op
	}

	switch tokens[0].Type {
	case lexer.TOKEN_IF:
		op.Cmd = opcode.If
		c.compileCondition(&op, line, code, tokens)
	case lexer.TOKEN_ELSIF:
		op.Cmd = opcode.Elsif
		c.compileCondition(&op, line, code, tokens)
	case lexer.TOKEN_ELSE:
		op.Cmd = opcode.Else
		if tokens[1].Type != lexer.TOKEN_EOF {
			c.fail(&op, line, tokens[1].Column, code, fmt.Errorf("unexpected %q after ELSE", tokens[1].Literal))
		}
	case lexer.TOKEN_END_IF:
		op.Cmd = opcode.EndIf
		if tokens[1].Type != lexer.TOKEN_EOF {
			c.fail(&op, line, tokens[1].Column, code, fmt.Errorf("unexpected %q after END_IF", tokens[1].Literal))
		}
	case lexer.TOKEN_IDENT:
		if len(tokens) > 1 && tokens[1].Type == lexer.TOKEN_ASSIGN {
			op.Cmd = opcode.Assign
			op.Target = tokens[0].Literal
			c.compileValue(&op, line, code, tokens[1])
		}
	}

	return op
}

// compileCondition extracts and parses the condition between IF/ELSIF and THEN.
func (c *Compiler) compileCondition(op *opcode.OpCode, line program.Line, code string, tokens []lexer.Token) {
	keyword := tokens[0]
	then := -1
	for i, tok := range tokens {
		if tok.Type == lexer.TOKEN_THEN {
			then = i
			break
		}
	}
	if then < 0 {
		c.fail(op, line, len(code)+1, code, fmt.Errorf("%s without THEN", strings.ToUpper(keyword.Literal)))
		return
	}
	if tokens[then+1].Type != lexer.TOKEN_EOF {
		extra := tokens[then+1]
		c.fail(op, line, extra.Column, code, fmt.Errorf("unexpected %q after THEN", extra.Literal))
		return
	}

	start := keyword.Offset + len(keyword.Literal)
	text := code[start:tokens[then].Offset]
	expr, column, err := compileExpr(text, start)
	if err != nil {
		c.fail(op, line, column, code, err)
		return
	}
	op.Cond = expr
}

// compileValue parses the right-hand side of an assignment.
func (c *Compiler) compileValue(op *opcode.OpCode, line program.Line, code string, assign lexer.Token) {
	start := assign.Offset + len(assign.Literal)
	expr, column, err := compileExpr(code[start:], start)
	if err != nil {
		c.fail(op, line, column, code, err)
		return
	}
	op.Value = expr
}

// compileExpr parses text found at offset start of the statement. On error it
// returns the 1-based column of the problem within the statement.
func compileExpr(text string, start int) (*eval.Expr, int, error) {
	lead := len(text) - len(strings.TrimLeft(text, " \t"))
	expr, err := eval.Compile(text)
	if err == nil {
		return expr, 0, nil
	}

	column := start + lead + 1
	var pe *parser.ParserError
	if errors.As(err, &pe) && pe.Line == 1 {
		column += pe.Column - 1
	}
	return nil, column, err
}

// fail records a malformed statement. The opcode keeps the error as an
// EvaluationError so the VM can report it like a runtime evaluation failure.
func (c *Compiler) fail(op *opcode.OpCode, line program.Line, column int, code string, err error) {
	var ee *eval.EvaluationError
	if !errors.As(err, &ee) {
		err = &eval.EvaluationError{Expr: code, Err: err}
	}
	op.Err = err

	// 物理行の中での位置に換算する
	if i := strings.Index(line.Original, strings.TrimSpace(line.Code)); i >= 0 {
		column += i
	}
	c.errors = append(c.errors, NewCompilerError(err.Error(), line.Number, column))
}
