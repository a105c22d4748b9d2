package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestFindFileCaseInsensitive(t *testing.T) {
	tmpDir := t.TempDir()

	testFiles := []string{
		"MotorControl.st",
		"TRAFFIC.ST",
		"tank_level.st",
	}

	for _, filename := range testFiles {
		path := filepath.Join(tmpDir, filename)
		if err := os.WriteFile(path, []byte("FUNCTION_BLOCK FB\nEND_FUNCTION_BLOCK\n"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "sub.st"), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	tests := []struct {
		name          string
		searchName    string
		shouldFind    bool
		expectedMatch string
	}{
		{"exact match", "MotorControl.st", true, "MotorControl.st"},
		{"lowercase search", "motorcontrol.st", true, "MotorControl.st"},
		{"mixed case search for uppercase file", "Traffic.st", true, "TRAFFIC.ST"},
		{"uppercase search for lowercase file", "TANK_LEVEL.ST", true, "tank_level.st"},
		{"directories are skipped", "SUB.ST", false, ""},
		{"file not found", "nonexistent.st", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := FindFileCaseInsensitive(tmpDir, tt.searchName)

			if !tt.shouldFind {
				if err == nil {
					t.Errorf("Expected error for %s, but got path: %s", tt.searchName, path)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected to find file, but got error: %v", err)
			}
			if got := filepath.Base(path); got != tt.expectedMatch {
				t.Errorf("Expected filename %s, got %s", tt.expectedMatch, got)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	tmpDir := t.TempDir()
	actual := filepath.Join(tmpDir, "Motor.ST")
	if err := os.WriteFile(actual, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	got, err := ResolvePath(actual)
	if err != nil || got != actual {
		t.Errorf("existing path should be returned unchanged, got %q, %v", got, err)
	}

	got, err = ResolvePath(filepath.Join(tmpDir, "motor.st"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(got) != "Motor.ST" {
		t.Errorf("expected Motor.ST, got %s", got)
	}

	_, err = ResolvePath(filepath.Join(tmpDir, "missing.st"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}
