package vm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zurustar/stsim/pkg/datatype"
	"github.com/zurustar/stsim/pkg/eval"
	"github.com/zurustar/stsim/pkg/opcode"
)

// BranchFrame tracks one open IF chain during a cycle.
type BranchFrame struct {
	// BranchTaken is true once some branch of the chain has been entered.
	BranchTaken bool
	// SkipUntilNext suppresses the statements up to the next ELSIF, ELSE or
	// END_IF of the chain.
	SkipUntilNext bool
	// Dead marks a chain opened inside a suppressed region. Its ELSIF, ELSE
	// and END_IF only keep the stack balanced; nothing is evaluated or
	// recorded for them.
	Dead bool
}

// execution is the mutable state of one Run: the variable store, the branch
// stack of the current cycle and the trace recorded so far.
type execution struct {
	vm          *VM
	store       *Store
	stack       []BranchFrame
	steps       []Step
	prev        map[string]any
	cycle       int
	diagnostics int
}

func newExecution(vm *VM) *execution {
	return &execution{
		vm:    vm,
		store: NewStore(vm.prog.Variables()),
	}
}

// initialize applies inputs and records step 0.
func (x *execution) initialize(inputs map[string]any) {
	for _, name := range sortedKeys(inputs) {
		x.applyInput(name, inputs[name])
	}

	snap := x.store.Snapshot()
	x.append(Step{
		Number:      0,
		Cycle:       0,
		LineIndex:   -1,
		Line:        0,
		Code:        InitializationCode,
		Variables:   snap,
		Description: "initialize variables",
	})
	x.prev = snap
}

// applyInput overrides the initial value of a declared variable.
// Values are converted to the declared type and ignored when they do not fit
// it, so "-i n=abc" keeps the initial value of an INT. Strings for opaque
// types are read like declaration initializers.
func (x *execution) applyInput(name string, value any) {
	v, ok := x.vm.prog.Lookup(name)
	if !ok {
		x.vm.log.Warn("Ignoring input for undeclared variable", "name", name)
		return
	}

	var converted any
	if s, isString := value.(string); isString && v.Type.Kind == datatype.KindOpaque {
		converted = v.Type.ParseInitial(s)
	} else {
		c, err := v.Type.Coerce(value)
		if err != nil {
			x.vm.log.Warn("Ignoring input that does not fit the declared type",
				"name", v.Name, "type", v.Type.Name, "error", err)
			return
		}
		converted = c
	}

	x.store.Set(v.Name, converted)
	x.vm.log.Debug("Input applied", "name", v.Name, "value", eval.FormatValue(converted))
}

// runCycle executes every body statement once. Under PolicyStrict it returns
// the first diagnostic.
func (x *execution) runCycle(cycle int) error {
	x.cycle = cycle
	x.stack = x.stack[:0]

	for i := range x.vm.opcodes {
		op := &x.vm.opcodes[i]
		description, emit, err := x.execute(op)
		if !emit {
			continue
		}
		x.record(op, description, err)
		if err != nil && x.vm.policy == PolicyStrict {
			return err
		}
	}

	if len(x.stack) > 0 {
		x.vm.log.Warn("IF chain not closed at end of cycle", "cycle", cycle, "open", len(x.stack))
	}
	return nil
}

// execute runs one statement. emit is false when the statement is
// suppressed and no step must be recorded.
func (x *execution) execute(op *opcode.OpCode) (description string, emit bool, err error) {
	if !op.IsControl() && x.skipping() {
		return "", false, nil
	}

	switch op.Cmd {
	case opcode.If:
		if x.skipping() {
			x.stack = append(x.stack, BranchFrame{BranchTaken: true, SkipUntilNext: true, Dead: true})
			return "", false, nil
		}
		return x.executeIf(op)

	case opcode.Elsif, opcode.Else, opcode.EndIf:
		if len(x.stack) == 0 {
			keyword := controlKeyword(op.Cmd)
			return fmt.Sprintf("%s without matching IF", keyword), true, x.controlFlowError(op, keyword)
		}
		if x.top().Dead {
			if op.Cmd == opcode.EndIf {
				x.pop()
			}
			return "", false, nil
		}
		switch op.Cmd {
		case opcode.Elsif:
			return x.executeElsif(op)
		case opcode.Else:
			return x.executeElse(op)
		default:
			return x.executeEndIf(op)
		}

	case opcode.Assign:
		return x.executeAssign(op)

	default:
		return fmt.Sprintf("execute: %s", op.Code), true, nil
	}
}

func (x *execution) executeIf(op *opcode.OpCode) (string, bool, error) {
	result, err := x.condition(op)
	if err != nil {
		// 評価できない IF は全分岐を抑止し、END_IF の対応だけ保つ
		x.stack = append(x.stack, BranchFrame{BranchTaken: true, SkipUntilNext: true})
		return fmt.Sprintf("IF condition evaluation failed: %v", err), true, x.evaluationError(op, err)
	}

	x.stack = append(x.stack, BranchFrame{BranchTaken: result, SkipUntilNext: !result})
	return fmt.Sprintf("IF condition: %s = %s", op.Cond.Text, eval.FormatValue(result)), true, nil
}

func (x *execution) executeElsif(op *opcode.OpCode) (string, bool, error) {
	frame := x.top()
	if frame.BranchTaken {
		frame.SkipUntilNext = true
		return "skip ELSIF branch (a previous branch was taken)", true, nil
	}

	result, err := x.condition(op)
	if err != nil {
		frame.BranchTaken = true
		frame.SkipUntilNext = true
		return fmt.Sprintf("ELSIF condition evaluation failed: %v", err), true, x.evaluationError(op, err)
	}

	frame.BranchTaken = result
	frame.SkipUntilNext = !result
	return fmt.Sprintf("ELSIF condition: %s = %s", op.Cond.Text, eval.FormatValue(result)), true, nil
}

func (x *execution) executeElse(op *opcode.OpCode) (string, bool, error) {
	frame := x.top()
	var description string
	if frame.BranchTaken {
		frame.SkipUntilNext = true
		description = "skip ELSE branch (a previous branch was taken)"
	} else {
		frame.BranchTaken = true
		frame.SkipUntilNext = false
		description = "enter ELSE branch"
	}
	return x.withStatementError(op, description)
}

func (x *execution) executeEndIf(op *opcode.OpCode) (string, bool, error) {
	x.pop()
	return x.withStatementError(op, "end IF")
}

// withStatementError attaches the compile error of a control statement that
// still took effect, such as "END_IF x".
func (x *execution) withStatementError(op *opcode.OpCode, description string) (string, bool, error) {
	if op.Err != nil {
		return fmt.Sprintf("%s; %v", description, op.Err), true, x.evaluationError(op, op.Err)
	}
	return description, true, nil
}

func (x *execution) executeAssign(op *opcode.OpCode) (string, bool, error) {
	if op.Err != nil {
		return fmt.Sprintf("assignment failed: %v", op.Err), true, x.evaluationError(op, op.Err)
	}

	name, ok := x.store.Resolve(op.Target)
	if !ok {
		err := &eval.EvaluationError{Expr: op.Target, Err: fmt.Errorf("%w: %s is not declared", eval.ErrUnknownIdentifier, op.Target)}
		return fmt.Sprintf("assignment failed: %v", err), true, x.evaluationError(op, err)
	}

	value, err := op.Value.Eval(x.store)
	if err != nil {
		return fmt.Sprintf("assignment failed: %v", err), true, x.evaluationError(op, err)
	}

	variable, _ := x.vm.prog.Lookup(name)
	stored, err := variable.Type.Coerce(value)
	if err != nil {
		err = &eval.EvaluationError{Expr: op.Value.Text, Err: fmt.Errorf("%w: %v", eval.ErrTypeMismatch, err)}
		return fmt.Sprintf("assignment failed: %v", err), true, x.evaluationError(op, err)
	}

	old, _ := x.store.Get(name)
	x.store.Set(name, stored)
	return fmt.Sprintf("assign: %s = %s (was: %s)", name, eval.FormatValue(stored), eval.FormatValue(old)), true, nil
}

// condition evaluates the condition of an IF or ELSIF.
func (x *execution) condition(op *opcode.OpCode) (bool, error) {
	if op.Err != nil {
		return false, op.Err
	}
	if op.Cond == nil {
		return false, &eval.EvaluationError{Expr: op.Code, Err: errors.New("missing condition")}
	}
	return eval.EvaluateCondition(op.Cond, x.store)
}

// skipping reports whether any open chain suppresses the current statement.
func (x *execution) skipping() bool {
	for _, f := range x.stack {
		if f.SkipUntilNext {
			return true
		}
	}
	return false
}

func (x *execution) top() *BranchFrame {
	return &x.stack[len(x.stack)-1]
}

func (x *execution) pop() {
	x.stack = x.stack[:len(x.stack)-1]
}

// record appends the step of an executed statement.
func (x *execution) record(op *opcode.OpCode, description string, err error) {
	snap := x.store.Snapshot()
	step := Step{
		Number:      len(x.steps),
		Cycle:       x.cycle,
		LineIndex:   op.Index,
		Line:        op.Line,
		Code:        op.Code,
		Variables:   snap,
		Description: description,
		Changed:     x.store.Changed(x.prev),
		Err:         err,
	}
	x.prev = snap
	x.append(step)
}

func (x *execution) append(step Step) {
	x.steps = append(x.steps, step)
	if step.Err != nil {
		x.diagnostics++
		x.vm.log.Warn("Diagnostic", "step", step.Number, "line", step.Line, "error", step.Err)
	} else {
		x.vm.log.Debug("Step", "step", step.Number, "cycle", step.Cycle, "line", step.Line, "description", step.Description)
	}
	if x.vm.observer != nil {
		x.vm.observer.OnStep(step)
	}
}

// finish copies the trace into result.
func (x *execution) finish(result *Result) {
	result.Steps = x.steps
	result.TotalSteps = len(x.steps)
	result.FinalVariables = x.store.Snapshot()
	result.Diagnostics = x.diagnostics
}

func (x *execution) evaluationError(op *opcode.OpCode, err error) *RuntimeError {
	e := NewRuntimeErrorWithContext(ErrorEvaluation, err.Error(), x.vm.fileName, op.Line, op.Code)
	e.Err = err
	return e
}

func (x *execution) controlFlowError(op *opcode.OpCode, keyword string) *RuntimeError {
	e := NewControlFlowError(keyword, op.Line)
	e.File = x.vm.fileName
	e.Context = op.Code
	return e
}

// controlKeyword returns the ST keyword of a control command.
func controlKeyword(cmd opcode.Cmd) string {
	switch cmd {
	case opcode.Elsif:
		return "ELSIF"
	case opcode.Else:
		return "ELSE"
	case opcode.EndIf:
		return "END_IF"
	default:
		return strings.ToUpper(string(cmd))
	}
}
