// Package compiler provides the compilation pipeline for Structured Text
// program units. It chains two phases:
// 1. Declaration parsing: program name, variables and body lines
// 2. Statement compilation: body lines to OpCode
//
// This package provides a unified API:
// - Compile: Compiles source code string to a Unit
// - CompileProgram: Compiles the body of an already parsed program
// - CompileFile: Loads a file in the given encoding and compiles it
package compiler

import (
	"fmt"

	"github.com/zurustar/stsim/pkg/compiler/compiler"
	"github.com/zurustar/stsim/pkg/opcode"
	"github.com/zurustar/stsim/pkg/program"
	"github.com/zurustar/stsim/pkg/script"
)

// Unit is a compiled program unit. It is usable even when compilation
// reported errors: malformed statements carry their error in the OpCode.
type Unit struct {
	FileName string
	Program  *program.Program
	OpCodes  []opcode.OpCode
	Warnings []program.Warning
}

// Compile parses source and compiles its body.
// Declaration warnings and statement errors are returned as *CompileError
// with source context, declaration warnings first.
func Compile(source string) (*Unit, []error) {
	prog, warnings := program.Parse(source)

	var errs []error
	for _, w := range warnings {
		errs = append(errs, NewDeclarationError(w, source))
	}

	opcodes, compileErrs := CompileProgram(prog)
	errs = append(errs, compileErrs...)

	return &Unit{
		Program:  prog,
		OpCodes:  opcodes,
		Warnings: warnings,
	}, errs
}

// CompileProgram compiles the body of prog.
func CompileProgram(prog *program.Program) ([]opcode.OpCode, []error) {
	if prog == nil {
		return nil, []error{&CompileError{Phase: PhaseCompiler, Message: "program is nil"}}
	}

	c := compiler.New()
	opcodes, compileErrs := c.Compile(prog.Body)

	var errs []error
	for _, err := range compileErrs {
		if ce, ok := err.(*compiler.CompilerError); ok {
			errs = append(errs, NewCompilerErrorWithContext(ce.Message, ce.Line, ce.Column, prog.Source))
		} else {
			errs = append(errs, err)
		}
	}
	return opcodes, errs
}

// CompileFile reads path, decodes it from encoding (see script.Decode) and
// compiles the content.
func CompileFile(path, encoding string) (*Unit, []error) {
	s, err := script.Load(path, encoding)
	if err != nil {
		return nil, []error{fmt.Errorf("failed to load %s: %w", path, err)}
	}

	unit, errs := Compile(s.Content)
	unit.FileName = s.FileName
	return unit, errs
}
