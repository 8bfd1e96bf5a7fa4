// Package testkit holds the assertions and seams shared by the package tests
package testkit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// MustPanic runs fn, fails the test unless it panics, and returns the panic value
func MustPanic(t *testing.T, fn func()) (v any) {
	t.Helper()
	defer func() {
		v = recover()
		if v == nil {
			t.Fatal("expected a panic")
		}
	}()
	fn()
	return nil
}

// MustContain fails the test unless out contains want. Long output is cut to its last lines
func MustContain(t *testing.T, out, want string) {
	t.Helper()
	if strings.Contains(out, want) {
		return
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) > 20 {
		lines = lines[len(lines)-20:]
	}
	t.Fatalf("output is missing %q; ends with:\n%s", want, strings.Join(lines, "\n"))
}

// WriteFile writes content to name under a fresh temp dir and returns its path
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
