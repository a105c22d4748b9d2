// Package program extracts the structure of a Structured Text program unit:
// its name, the typed variable declarations of each section and the ordered
// body statements.
package program

import (
	"fmt"
	"strings"

	"github.com/zurustar/stsim/pkg/datatype"
)

// Class is the declaration section a variable belongs to.
type Class int

const (
	// ClassInput is a VAR_INPUT variable.
	ClassInput Class = iota
	// ClassOutput is a VAR_OUTPUT variable.
	ClassOutput
	// ClassInternal is a VAR variable.
	ClassInternal
)

// String returns the section-style name of the class.
func (c Class) String() string {
	switch c {
	case ClassInput:
		return "INPUT"
	case ClassOutput:
		return "OUTPUT"
	case ClassInternal:
		return "VAR"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Variable is one declared variable.
type Variable struct {
	Name        string
	Type        datatype.Type
	Class       Class
	Initial     any    // value before the first scan cycle
	InitialText string // initializer as written, empty when absent
	Line        int    // 1-based source line of the declaration
}

// String formats the variable like a declaration.
func (v *Variable) String() string {
	if v.InitialText != "" {
		return fmt.Sprintf("%s : %s := %s", v.Name, v.Type.Name, v.InitialText)
	}
	return fmt.Sprintf("%s : %s", v.Name, v.Type.Name)
}

// Line is one body statement.
type Line struct {
	Number   int    // 1-based source line number
	Code     string // statement text with comments removed
	Original string // the full physical source line
}

// Warning is a non-fatal problem found while parsing.
type Warning struct {
	Line    int
	Message string
}

// String formats the warning with its line number.
func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

// Program is the parsed form of one program unit. It is not modified after
// Parse returns.
type Program struct {
	Name      string
	Unit      string // FUNCTION_BLOCK, PROGRAM, FUNCTION or empty
	Inputs    []*Variable
	Outputs   []*Variable
	Internals []*Variable
	Body      []Line
	Source    string
}

// Variables returns all variables in declaration order: inputs, outputs,
// then internals.
func (p *Program) Variables() []*Variable {
	vars := make([]*Variable, 0, len(p.Inputs)+len(p.Outputs)+len(p.Internals))
	vars = append(vars, p.Inputs...)
	vars = append(vars, p.Outputs...)
	vars = append(vars, p.Internals...)
	return vars
}

// Lookup finds a variable by name. An exact match wins; otherwise names are
// compared case-insensitively, as ST identifiers are.
func (p *Program) Lookup(name string) (*Variable, bool) {
	vars := p.Variables()
	for _, v := range vars {
		if v.Name == name {
			return v, true
		}
	}
	for _, v := range vars {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return nil, false
}
