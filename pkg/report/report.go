// Package report renders a simulation result as console tables.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/zurustar/stsim/pkg/eval"
	"github.com/zurustar/stsim/pkg/program"
	"github.com/zurustar/stsim/pkg/vm"
)

// Options controls what the trace table shows.
type Options struct {
	// ChangesOnly keeps the initialization step, steps that changed a
	// variable and steps with a diagnostic.
	ChangesOnly bool
}

// Write renders the trace, the final variables and the summary line to w.
func Write(w io.Writer, prog *program.Program, r *vm.Result, opts Options) error {
	for _, s := range []string{Trace(r, opts), Variables(prog, r), Summary(r)} {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
	}
	return nil
}

// Trace renders the execution steps.
func Trace(r *vm.Result, opts Options) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("Execution trace")
	t.AppendHeader(table.Row{"Step", "Cycle", "Line", "Statement", "Description", "Changes"})

	var prev map[string]any
	for _, s := range r.Steps {
		changes := formatChanges(s, prev)
		prev = s.Variables
		if opts.ChangesOnly && !s.IsInitialization() && len(s.Changed) == 0 && s.Err == nil {
			continue
		}

		line := ""
		if s.Line > 0 {
			line = fmt.Sprint(s.Line)
		}
		cycle := ""
		if s.Cycle > 0 {
			cycle = fmt.Sprint(s.Cycle)
		}
		description := s.Description
		if s.Err != nil {
			description = "! " + description
		}
		t.AppendRow(table.Row{s.Number, cycle, line, s.Code, description, changes})
	}
	return t.Render()
}

// formatChanges lists "name: old -> new" for the variables a step changed.
func formatChanges(s vm.Step, prev map[string]any) string {
	if s.IsInitialization() || len(s.Changed) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.Changed))
	for _, name := range s.Changed {
		parts = append(parts, fmt.Sprintf("%s: %s -> %s", name, eval.FormatValue(prev[name]), eval.FormatValue(s.Variables[name])))
	}
	return strings.Join(parts, "\n")
}

// Variables renders every declared variable with its initial and final value.
func Variables(prog *program.Program, r *vm.Result) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s %s", prog.Unit, prog.Name))
	t.AppendHeader(table.Row{"Variable", "Class", "Type", "Initial", "Final"})

	var initial map[string]any
	if len(r.Steps) > 0 {
		initial = r.Steps[0].Variables
	}
	for _, v := range prog.Variables() {
		t.AppendRow(table.Row{
			v.Name,
			v.Class.String(),
			v.Type.Name,
			eval.FormatValue(initial[v.Name]),
			eval.FormatValue(r.FinalVariables[v.Name]),
		})
	}
	return t.Render()
}

// Summary returns a one-line outcome of the run.
func Summary(r *vm.Result) string {
	if !r.Success {
		return fmt.Sprintf("Simulation failed after %d step(s): %s", r.TotalSteps, r.ErrorMessage)
	}
	return fmt.Sprintf("Simulation finished: %d step(s) in %d cycle(s), %d diagnostic(s)", r.TotalSteps, r.Cycles, r.Diagnostics)
}
