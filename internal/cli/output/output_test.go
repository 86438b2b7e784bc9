package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeText, false, ModeText},
		{ModeMarkdown, true, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestNewRendererDetectsNonTerminal(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestMarkdownOutput(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeMarkdown, false)

	r.Header(1, "Profiles")
	r.Success("done")
	r.Muted("quiet")
	r.StatusLine("Python", "success", "19 entries")
	r.Warning("2 unresolved tokens")

	got := out.String()
	assert.Contains(t, got, "# Profiles\n")
	assert.Contains(t, got, "**done**")
	assert.Contains(t, got, "_quiet_")
	assert.Contains(t, got, "- Python: 19 entries")
	assert.NotContains(t, got, "warning", "warnings go to stderr")
	assert.Contains(t, errOut.String(), "warning: 2 unresolved tokens")
	assert.NotContains(t, got+errOut.String(), "\x1b[", "no ANSI codes off-terminal")
}

func TestTextOutput(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText, false)

	r.Header(2, "Go")
	r.StatusLine("main.go", "error", "")

	assert.Contains(t, out.String(), "Go\n")
	assert.Contains(t, out.String(), "✗ main.go")
}

func TestJSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)

	require.NoError(t, r.JSON(map[string]any{"tokens": []string{"F001", "x < y"}}))

	assert.Contains(t, out.String(), "x < y", "HTML characters are not escaped")
	var decoded map[string][]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, []string{"F001", "x < y"}, decoded["tokens"])
}

func TestTable(t *testing.T) {
	header := []string{"Language", "Entries"}
	rows := [][]string{{"Python", "19"}, {"Go", "20"}}

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown, false)
		r.Table(header, rows)
		assert.Contains(t, out.String(), "| Language | Entries |")
		assert.Contains(t, out.String(), "| Python | 19 |")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, false)
		r.Table(header, rows)
		assert.Contains(t, out.String(), "┌")
		assert.Contains(t, out.String(), "Python")
	})
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Title", FormatHeader(2, "Title"))
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "- **Language:** Go", FormatKeyValue("Language", "Go"))
	assert.Equal(t, "```python\ndef f():\n```", FormatCodeBlock("python", "def f():\n"))

	block := FormatCodeBlock("", "a ``` b")
	assert.True(t, strings.HasPrefix(block, "````\n"), "fence outgrows embedded backticks: %q", block)
}

func TestModes(t *testing.T) {
	assert.Equal(t, []string{"auto", "text", "markdown", "json"}, Modes())
}
