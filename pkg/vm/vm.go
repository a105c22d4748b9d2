// Package vm simulates the scan cycles of a Structured Text program unit.
// It walks the compiled body statements once per cycle against one
// persistent variable store and records every executed statement as a Step.
package vm

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/zurustar/stsim/pkg/compiler/compiler"
	"github.com/zurustar/stsim/pkg/eval"
	"github.com/zurustar/stsim/pkg/logger"
	"github.com/zurustar/stsim/pkg/opcode"
	"github.com/zurustar/stsim/pkg/program"
)

// Policy decides what happens when a statement raises a diagnostic.
type Policy int

const (
	// PolicyLenient records the diagnostic on the step and keeps running.
	PolicyLenient Policy = iota
	// PolicyStrict stops the run at the first diagnostic.
	PolicyStrict
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyLenient:
		return "lenient"
	case PolicyStrict:
		return "strict"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// DefaultCycles is used when Run is called with a cycle count of 0.
const DefaultCycles = 1

// VM is the scan-cycle simulator for one program.
// The program and its compiled statements are read-only; every call to Run
// works on its own variable store and branch stack, so runs are independent.
type VM struct {
	prog     *program.Program
	opcodes  []opcode.OpCode
	compiled bool // opcodes were supplied by WithOpCodes
	fileName string

	policy    Policy
	maxCycles int // 0 = unlimited
	observer  StepObserver

	log *slog.Logger
}

// Option is a functional option for configuring the VM.
type Option func(*VM)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(vm *VM) {
		vm.log = log
	}
}

// WithPolicy sets the diagnostic policy. The default is PolicyLenient.
func WithPolicy(p Policy) Option {
	return func(vm *VM) {
		vm.policy = p
	}
}

// WithMaxCycles limits the cycle count accepted by Run. 0 means no limit.
func WithMaxCycles(n int) Option {
	return func(vm *VM) {
		vm.maxCycles = n
	}
}

// WithObserver streams every recorded step to o.
func WithObserver(o StepObserver) Option {
	return func(vm *VM) {
		vm.observer = o
	}
}

// WithFileName sets the file name reported in runtime errors.
func WithFileName(name string) Option {
	return func(vm *VM) {
		vm.fileName = name
	}
}

// WithOpCodes supplies the already compiled body of the program, as returned
// by compiler.CompileProgram. New then skips its own compilation.
func WithOpCodes(ops []opcode.OpCode) Option {
	return func(vm *VM) {
		vm.opcodes = ops
		vm.compiled = true
	}
}

// New creates a new VM for prog and compiles its body.
// Malformed statements do not prevent construction; they are reported as
// diagnostics when the run reaches them.
func New(prog *program.Program, opts ...Option) *VM {
	if prog == nil {
		prog = &program.Program{}
	}
	vm := &VM{
		prog:   prog,
		policy: PolicyLenient,
		log:    logger.GetLogger(),
	}

	for _, opt := range opts {
		opt(vm)
	}

	if !vm.compiled {
		c := compiler.New()
		vm.opcodes, _ = c.Compile(prog.Body)
		for _, e := range c.Errors() {
			vm.log.Debug("Malformed statement", "line", e.Line, "column", e.Column, "error", e.Message)
		}
	}
	vm.checkIdentifiers()

	return vm
}

// checkIdentifiers logs the statements that read a variable the program does
// not declare. They still run and fail with a diagnostic when reached.
func (vm *VM) checkIdentifiers() {
	for _, op := range vm.opcodes {
		var expr *eval.Expr
		switch {
		case op.Cond != nil:
			expr = op.Cond
		case op.Value != nil:
			expr = op.Value
		default:
			continue
		}
		for _, name := range expr.Identifiers() {
			if _, ok := vm.prog.Lookup(name); !ok {
				vm.log.Warn("Statement reads an undeclared variable", "line", op.Line, "name", name, "statement", op.Code)
			}
		}
	}
}

// Program returns the simulated program.
func (vm *VM) Program() *program.Program {
	return vm.prog
}

// OpCodes returns the compiled body statements.
func (vm *VM) OpCodes() []opcode.OpCode {
	return vm.opcodes
}

// Run simulates cycles scan cycles. inputs override declared initial values
// before the first cycle; a cycle count of 0 means DefaultCycles.
// Run never panics: an unexpected failure ends the run with Success false and
// keeps the steps recorded so far.
func (vm *VM) Run(inputs map[string]any, cycles int) (result *Result) {
	result = &Result{}

	if cycles == 0 {
		cycles = DefaultCycles
	}
	if err := vm.checkCycles(cycles); err != nil {
		vm.log.Error("Invalid cycle count", "cycles", cycles, "error", err)
		result.fail(err)
		return result
	}

	x := newExecution(vm)
	defer func() {
		if r := recover(); r != nil {
			err := NewFatalError(r)
			vm.log.Error("Simulation aborted", "error", err, "steps", len(x.steps))
			x.finish(result)
			result.fail(err)
		}
	}()

	vm.log.Info("Simulation started",
		"program", vm.prog.Name,
		"cycles", cycles,
		"statements", len(vm.opcodes),
		"policy", vm.policy.String())

	x.initialize(inputs)
	for cycle := 1; cycle <= cycles; cycle++ {
		if err := x.runCycle(cycle); err != nil {
			vm.log.Warn("Simulation stopped at first diagnostic", "cycle", cycle, "error", err)
			x.finish(result)
			result.fail(err)
			return result
		}
		result.Cycles = cycle
	}

	x.finish(result)
	result.Success = true
	vm.log.Info("Simulation finished",
		"program", vm.prog.Name,
		"steps", result.TotalSteps,
		"diagnostics", result.Diagnostics)
	return result
}

func (vm *VM) checkCycles(cycles int) error {
	if cycles < 0 {
		return NewRuntimeError(ErrorInvalidArgument, fmt.Sprintf("cycle count must be positive, got %d", cycles))
	}
	if vm.maxCycles > 0 && cycles > vm.maxCycles {
		return NewRuntimeError(ErrorInvalidArgument, fmt.Sprintf("cycle count %d exceeds the limit of %d", cycles, vm.maxCycles))
	}
	return nil
}

func (r *Result) fail(err error) {
	r.Success = false
	r.Err = err
	r.ErrorMessage = err.Error()
}

// Simulate parses source and runs it. The parse warnings are returned
// alongside the result.
func Simulate(source string, inputs map[string]any, cycles int, opts ...Option) (*Result, []program.Warning) {
	prog, warnings := program.Parse(source)
	return New(prog, opts...).Run(inputs, cycles), warnings
}

// sortedKeys returns the keys of m in order, for deterministic logging.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
