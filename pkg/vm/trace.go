package vm

import (
	"fmt"
	"strings"
)

// InitializationCode is the statement text of step 0.
const InitializationCode = "[INITIALIZATION]"

// Step is one entry of the execution trace. Steps are not modified after
// they are appended.
type Step struct {
	Number      int            // 0 for initialization, never reset between cycles
	Cycle       int            // 1-based scan cycle, 0 for initialization
	LineIndex   int            // index into Program.Body, -1 for initialization
	Line        int            // 1-based source line, 0 for initialization
	Code        string         // statement text as written
	Variables   map[string]any // all values after the statement
	Description string
	Changed     []string // variables changed since the previous step, declaration order
	Err         error    // diagnostic of the statement, nil on clean steps
}

// IsInitialization reports whether the step is the synthetic step 0.
func (s Step) IsInitialization() bool {
	return s.LineIndex < 0
}

// String formats the step for logs.
func (s Step) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Step %d", s.Number)
	if s.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", s.Line)
	}
	fmt.Fprintf(&b, ": %s", s.Description)
	if len(s.Changed) > 0 {
		fmt.Fprintf(&b, " [changed: %s]", strings.Join(s.Changed, ", "))
	}
	return b.String()
}

// Result is the outcome of one simulation run.
type Result struct {
	Steps          []Step
	FinalVariables map[string]any
	TotalSteps     int
	Success        bool
	ErrorMessage   string
	Err            error // the error behind ErrorMessage

	Cycles      int // scan cycles completed
	Diagnostics int // steps carrying an Err
}

// StepsInCycle returns the steps of one scan cycle. Cycle 0 is the
// initialization step.
func (r *Result) StepsInCycle(cycle int) []Step {
	var steps []Step
	for _, s := range r.Steps {
		if s.Cycle == cycle {
			steps = append(steps, s)
		}
	}
	return steps
}

// ChangedSteps returns the steps that changed at least one variable.
func (r *Result) ChangedSteps() []Step {
	var steps []Step
	for _, s := range r.Steps {
		if len(s.Changed) > 0 {
			steps = append(steps, s)
		}
	}
	return steps
}

// StepObserver receives every step as soon as it is recorded.
type StepObserver interface {
	OnStep(step Step)
}

// ObserverFunc adapts a function to StepObserver.
type ObserverFunc func(step Step)

// OnStep calls f(step).
func (f ObserverFunc) OnStep(step Step) {
	f(step)
}
