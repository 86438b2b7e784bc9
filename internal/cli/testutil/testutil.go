// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaptoken/internal/cli/output"
)

// SamplePython is a small Python program covered by the built-in profile
// except for its body lines.
const SamplePython = `import os
def main():
    print("hi")
    x = 1
    return x`

// SampleProfileYAML declares a custom profile for import and directory tests.
const SampleProfileYAML = `name: Toy
extension: toy
comment: ";"
entries:
  - pattern: begin
    code: T001
  - pattern: end
    code: T002
`

// SampleRecordsCSV is a batch of (language, component, token) records.
const SampleRecordsCSV = `Language,Component,Token
Python,header,I001
Python,entry,F001
JavaScript,entry,F001
JavaScript,unknown,ZZZ999
Cobol,legacy,X001
`

// SetupTestProject creates a temporary project with a source file, a
// profiles directory and a record table.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "profiles"), 0o750))

	files := map[string]string{
		"main.py":             SamplePython,
		"records.csv":         SampleRecordsCSV,
		"profiles/toy.yaml":   SampleProfileYAML,
		"profiles/README.txt": "not a profile",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte(body), 0o600))
	}

	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	assert.False(t, ansiPattern.MatchString(s), "string contains ANSI escape codes: %q", s)
}

// ReadFile returns the contents of a file under dir.
func ReadFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}
