package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const motorSource = `FUNCTION_BLOCK MotorControl
VAR_INPUT
    start_button : BOOL;
    temperature : REAL;
END_VAR
VAR_OUTPUT
    motor : BOOL;
END_VAR
VAR
    running_time : INT := 0;
END_VAR
IF start_button THEN
    motor := TRUE;
END_IF;
IF temperature > 80.0 THEN
    motor := FALSE;
END_IF;
IF motor THEN
    running_time := running_time + 1;
END_IF;
END_FUNCTION_BLOCK
`

// writeSource はテスト用のSTファイルを作成する
func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motor.st")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	for _, name := range []string{"STSIM_CYCLES", "STSIM_STRICT", "LOG_LEVEL"} {
		t.Setenv(name, "")
	}
	var stdout, stderr bytes.Buffer
	application := New(&stdout, &stderr)
	err := application.Run(args)
	if cerr := application.Close(); cerr != nil {
		t.Errorf("Close() error: %v", cerr)
	}
	return stdout.String(), stderr.String(), err
}

func TestRun_Simulation(t *testing.T) {
	path := writeSource(t, motorSource)

	stdout, stderr, err := run(t, path, "-c", "3", "-i", "start_button=TRUE", "-i", "temperature=25.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, s := range []string{
		"Execution trace",
		"IF condition: start_button = TRUE",
		"running_time: 2 -> 3",
		"FUNCTION_BLOCK MotorControl",
		"Simulation finished: 25 step(s) in 3 cycle(s), 0 diagnostic(s)",
	} {
		if !strings.Contains(stdout, s) {
			t.Errorf("stdout should contain %q\n%s", s, stdout)
		}
	}
	if !strings.Contains(stderr, "Simulation started") {
		t.Errorf("stderr should contain the start log, got:\n%s", stderr)
	}
	if strings.Contains(stdout, "Simulation started") {
		t.Error("logs must not be written to stdout")
	}
}

func TestRun_Help(t *testing.T) {
	stdout, _, err := run(t, "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "stsim - Structured Text scan-cycle simulator") {
		t.Errorf("help output should contain title, got:\n%s", stdout)
	}
}

func TestRun_InvalidArgs(t *testing.T) {
	if _, _, err := run(t); err == nil {
		t.Error("expected error without source file")
	}
	if _, _, err := run(t, filepath.Join(t.TempDir(), "missing.st")); err == nil {
		t.Error("expected error for missing source file")
	}
}

func TestRun_MaxCycles(t *testing.T) {
	path := writeSource(t, motorSource)

	stdout, _, err := run(t, path, "-c", "50", "--max-cycles", "10")
	if !errors.Is(err, ErrSimulationFailed) {
		t.Fatalf("expected ErrSimulationFailed, got %v", err)
	}
	if !strings.Contains(stdout, "cycle count 50 exceeds the limit of 10") {
		t.Errorf("summary should explain the failure, got:\n%s", stdout)
	}
}

func TestRun_StrictStopsAtDiagnostic(t *testing.T) {
	src := `PROGRAM P
VAR n : INT; END_VAR
n := n + 1;
END_IF;
n := n + 1;
END_PROGRAM
`
	path := writeSource(t, src)

	// lenient では診断を記録して完走する
	stdout, _, err := run(t, path, "-c", "2")
	if err != nil {
		t.Fatalf("lenient run failed: %v", err)
	}
	if !strings.Contains(stdout, "2 diagnostic(s)") {
		t.Errorf("expected 2 diagnostics, got:\n%s", stdout)
	}

	stdout, _, err = run(t, path, "-c", "2", "--strict")
	if !errors.Is(err, ErrSimulationFailed) {
		t.Fatalf("expected ErrSimulationFailed, got %v", err)
	}
	if !strings.Contains(stdout, "Simulation failed after 3 step(s)") {
		t.Errorf("strict run should stop at the first diagnostic, got:\n%s", stdout)
	}
}

func TestRun_ChangesOnly(t *testing.T) {
	path := writeSource(t, motorSource)

	stdout, _, err := run(t, path, "--changes-only", "-i", "start_button=FALSE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(stdout, "IF condition") {
		t.Errorf("unchanged steps should be hidden, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "[INITIALIZATION]") {
		t.Error("initialization step should always be shown")
	}
}

func TestRun_Scenario(t *testing.T) {
	path := writeSource(t, motorSource)
	scenario := filepath.Join(t.TempDir(), "overheat.yaml")
	content := "cycles: 2\ninputs:\n  start_button: true\n  temperature: 85.5\n"
	if err := os.WriteFile(scenario, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := run(t, "--scenario", scenario, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "IF condition: temperature > 80.0 = TRUE") {
		t.Errorf("scenario inputs not applied, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "in 2 cycle(s)") {
		t.Errorf("scenario cycles not applied, got:\n%s", stdout)
	}
}

func TestRun_LogFile(t *testing.T) {
	path := writeSource(t, motorSource)
	logPath := filepath.Join(t.TempDir(), "sim.log")

	_, stderr, err := run(t, path, "--log-file", logPath, "-l", "debug")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stderr != "" {
		t.Errorf("nothing should be logged to stderr, got:\n%s", stderr)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Source compiled") {
		t.Errorf("log file should contain compile log, got:\n%s", data)
	}
}
