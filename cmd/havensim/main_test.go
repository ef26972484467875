package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunExitCodes(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"builtin deck", []string{"-builtin", "base", "-n", "50", "-seed", "7"}, 0},
		{"help", []string{"-h"}, 0},
		{"unknown flag", []string{"-bogus"}, 1},
		{"no input", nil, 1},
		{"missing deck file", []string{"-n", "50", missing}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args, io.Discard, io.Discard); got != tt.want {
				t.Fatalf("run(%q) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestRunWritesReport(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"-builtin", "rolling", "-n", "100", "-seed", "3"}, &out, io.Discard); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out.String(), "attacks in") || !strings.Contains(out.String(), "(seed 3)") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}
