// Package docio reads and writes the documents exchanged with the
// substitution engine: source text, token documents, record tables and
// generated output files.
package docio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/leaptoken/pkg/profile"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrMalformedInput is returned for unreadable or non-text input.
var ErrMalformedInput = errors.New("malformed input")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadSource reads UTF-8 source text and normalizes CRLF line endings.
func ReadSource(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read source: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: source is not valid UTF-8", ErrMalformedInput)
	}
	return string(bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))), nil
}

// ReadSourceFile reads a source file with ReadSource.
func ReadSourceFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	src, err := ReadSource(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// WriteText writes text to dir/name, creating dir if needed, and returns
// the path written.
func WriteText(dir, name, text string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

var lower = cases.Lower(language.Und)

// TokenizedFileName is the token document name for a language.
func TokenizedFileName(lang string) string {
	return fmt.Sprintf("tokenized_output_%s.json", lang)
}

// TokenizedFileNameFor names the token document of one of several sources
// tokenized together. An n above 1 is appended to tell apart sources that
// share a base name.
func TokenizedFileNameFor(lang, sourcePath string, n int) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if n > 1 {
		return fmt.Sprintf("tokenized_output_%s_%s_%d.json", lang, base, n)
	}
	return fmt.Sprintf("tokenized_output_%s_%s.json", lang, base)
}

// DetokenizedFileName is the reconstructed source name for a profile.
func DetokenizedFileName(p *profile.Profile) string {
	return fmt.Sprintf("detokenized_output_%s.%s", p.Name(), extension(p))
}

// GeneratedFileName is the batch output name for a profile.
func GeneratedFileName(p *profile.Profile) string {
	return fmt.Sprintf("generated_code_%s.%s", lower.String(p.Name()), extension(p))
}

func extension(p *profile.Profile) string {
	if ext := p.Extension(); ext != "" {
		return ext
	}
	return lower.String(p.Name())
}
