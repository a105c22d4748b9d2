package report_test

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zurustar/stsim/pkg/program"
	"github.com/zurustar/stsim/pkg/report"
	"github.com/zurustar/stsim/pkg/vm"
)

const source = `FUNCTION_BLOCK Motor
VAR_INPUT
    start : BOOL;
END_VAR
VAR_OUTPUT
    motor : BOOL;
END_VAR
VAR
    count : INT := 0;
END_VAR
IF start THEN
    motor := TRUE;
END_IF;
count := count + 1;
END_IF;
END_FUNCTION_BLOCK`

var _ = Describe("Report", func() {
	var (
		prog   *program.Program
		result *vm.Result
	)

	BeforeEach(func() {
		var warnings []program.Warning
		prog, warnings = program.Parse(source)
		Expect(warnings).To(BeEmpty())

		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		result = vm.New(prog, vm.WithLogger(quiet)).Run(map[string]any{"start": true}, 2)
		Expect(result.Success).To(BeTrue())
	})

	Describe("Trace", func() {
		It("should list every step", func() {
			out := report.Trace(result, report.Options{})

			Expect(out).To(ContainSubstring("Execution trace"))
			Expect(out).To(ContainSubstring("[INITIALIZATION]"))
			Expect(out).To(ContainSubstring("IF condition: start = TRUE"))
			Expect(out).To(ContainSubstring("motor: FALSE -> TRUE"))
			Expect(out).To(ContainSubstring("count: 1 -> 2"))
			Expect(strings.Count(out, "IF start THEN")).To(Equal(2))
		})

		It("should mark diagnostics", func() {
			out := report.Trace(result, report.Options{})
			Expect(out).To(ContainSubstring("! END_IF without matching IF"))
		})

		It("should hide unchanged steps when asked", func() {
			out := report.Trace(result, report.Options{ChangesOnly: true})

			Expect(out).To(ContainSubstring("[INITIALIZATION]"))
			Expect(out).To(ContainSubstring("motor := TRUE;"))
			Expect(out).To(ContainSubstring("count := count + 1;"))
			Expect(out).To(ContainSubstring("! END_IF without matching IF"))
			Expect(out).NotTo(ContainSubstring("IF start THEN"))
		})
	})

	Describe("Variables", func() {
		It("should show initial and final values in declaration order", func() {
			out := report.Variables(prog, result)

			Expect(out).To(ContainSubstring("FUNCTION_BLOCK Motor"))
			start := strings.Index(out, "start")
			motor := strings.Index(out, "motor")
			count := strings.Index(out, "count")
			Expect(start).To(BeNumerically("<", motor))
			Expect(motor).To(BeNumerically("<", count))
			Expect(out).To(MatchRegexp(`count\s*│\s*VAR\s*│\s*INT\s*│\s*0\s*│\s*2`))
		})
	})

	Describe("Summary", func() {
		It("should report a successful run", func() {
			Expect(report.Summary(result)).To(Equal("Simulation finished: 11 step(s) in 2 cycle(s), 2 diagnostic(s)"))
		})

		It("should report a failed run", func() {
			failed := vm.New(prog, vm.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))).Run(nil, -1)
			Expect(report.Summary(failed)).To(HavePrefix("Simulation failed after 0 step(s):"))
			Expect(report.Summary(failed)).To(ContainSubstring("must be positive"))
		})
	})

	Describe("Write", func() {
		It("should write all sections", func() {
			var buf bytes.Buffer
			Expect(report.Write(&buf, prog, result, report.Options{})).To(Succeed())

			out := buf.String()
			Expect(out).To(ContainSubstring("Execution trace"))
			Expect(out).To(ContainSubstring("FUNCTION_BLOCK Motor"))
			Expect(out).To(HaveSuffix("diagnostic(s)\n"))
		})
	})
})
