package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/zurustar/stsim/pkg/opcode"
)

const motorSource = `FUNCTION_BLOCK Motor
VAR_INPUT
    start : BOOL;
END_VAR
VAR_OUTPUT
    motor : BOOL;
END_VAR
IF start THEN
    motor := TRUE;
END_IF;
END_FUNCTION_BLOCK
`

// TestCompile tests the full pipeline on a well-formed unit.
func TestCompile(t *testing.T) {
	unit, errs := Compile(motorSource)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if unit.Program.Name != "Motor" {
		t.Errorf("Name = %q", unit.Program.Name)
	}

	want := []opcode.Cmd{opcode.If, opcode.Assign, opcode.EndIf}
	if len(unit.OpCodes) != len(want) {
		t.Fatalf("got %d opcodes, want %d", len(unit.OpCodes), len(want))
	}
	for i, cmd := range want {
		if unit.OpCodes[i].Cmd != cmd {
			t.Errorf("opcode %d = %s, want %s", i, unit.OpCodes[i].Cmd, cmd)
		}
	}
	if unit.OpCodes[1].Line != 9 {
		t.Errorf("assignment line = %d, want 9", unit.OpCodes[1].Line)
	}
}

// TestCompileDiagnostics tests that warnings and statement errors carry context.
func TestCompileDiagnostics(t *testing.T) {
	source := `FUNCTION_BLOCK Broken
VAR_INPUT
    a : INT;
    oops
END_VAR
IF a > THEN
    a := 1;
END_IF;
END_FUNCTION_BLOCK`

	unit, errs := Compile(source)
	if unit == nil {
		t.Fatal("Compile should always return a unit")
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}

	decl, ok := IsCompileError(errs[0])
	if !ok || decl.Phase != PhaseDeclaration || decl.Line != 4 {
		t.Errorf("first error = %v", errs[0])
	}

	stmt, ok := IsCompileError(errs[1])
	if !ok || stmt.Phase != PhaseCompiler || stmt.Line != 6 {
		t.Fatalf("second error = %v", errs[1])
	}
	if !strings.Contains(stmt.Context, "> 6 | IF a > THEN") {
		t.Errorf("context should mark line 6, got:\n%s", stmt.Context)
	}
	if unit.OpCodes[0].Err == nil {
		t.Error("malformed IF should carry its error")
	}
	if len(unit.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", unit.Warnings)
	}
}

// TestCompileProgramNil tests the nil guard.
func TestCompileProgramNil(t *testing.T) {
	ops, errs := CompileProgram(nil)
	if ops != nil || len(errs) != 1 {
		t.Errorf("got %v, %v", ops, errs)
	}
}

// TestCompileFile tests loading a Shift-JIS file.
func TestCompileFile(t *testing.T) {
	tmpDir := t.TempDir()
	src := strings.Replace(motorSource, "IF start THEN", "(* 起動 *)\nIF start THEN", 1)
	data, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(src))
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	path := filepath.Join(tmpDir, "motor.st")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	unit, errs := CompileFile(path, "auto")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if unit.FileName != "motor.st" {
		t.Errorf("FileName = %q", unit.FileName)
	}
	if len(unit.OpCodes) != 3 || unit.OpCodes[0].Line != 9 {
		t.Errorf("unexpected opcodes: %v", unit.OpCodes)
	}
}

// TestCompileFileNotFound tests the error path for a missing file.
func TestCompileFileNotFound(t *testing.T) {
	unit, errs := CompileFile(filepath.Join(t.TempDir(), "nope.st"), "auto")
	if unit != nil || len(errs) != 1 {
		t.Errorf("got %v, %v", unit, errs)
	}
}
