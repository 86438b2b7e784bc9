package docio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leaptoken/pkg/lexsub"
	"github.com/leapstack-labs/leaptoken/pkg/profile"
	"github.com/leapstack-labs/leaptoken/pkg/profiles/cpp"
	"github.com/leapstack-labs/leaptoken/pkg/profiles/python"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSource(t *testing.T) {
	src, err := ReadSource(strings.NewReader("\xEF\xBB\xBFimport os\r\nprint(1)\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "import os\nprint(1)\n", src)

	_, err = ReadSource(bytes.NewReader([]byte{0xff, 0xfe, 0x00}))
	assert.True(t, errors.Is(err, ErrMalformedInput))
}

func TestReadSourceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0600))

	src, err := ReadSourceFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", src)

	_, err = ReadSourceFile(filepath.Join(dir, "missing.go"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestTokenDocument(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{name: "tokens", input: `{"tokens": ["F001", "IO001"]}`, want: []string{"F001", "IO001"}},
		{name: "extra keys", input: `{"language": "Go", "tokens": ["I001"]}`, want: []string{"I001"}},
		{name: "missing tokens", input: `{}`, want: []string{}},
		{name: "null tokens", input: `{"tokens": null}`, want: []string{}},
		{name: "non-string", input: `{"tokens": ["F001", 7]}`, wantErr: true},
		{name: "null element", input: `{"tokens": ["F001", null]}`, wantErr: true},
		{name: "nested array", input: `{"tokens": [["F001"]]}`, wantErr: true},
		{name: "escaped string", input: `{"tokens": ["x = \"a\""]}`, want: []string{`x = "a"`}},
		{name: "not an object", input: `["F001"]`, wantErr: true},
		{name: "garbage", input: `tokens: F001`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadTokens(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrMalformedInput), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteTokens(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTokens(&buf, TokenDocument{Tokens: []string{"I001", "x = 1"}}))
	assert.Equal(t, "{\n    \"tokens\": [\n        \"I001\",\n        \"x = 1\"\n    ]\n}\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteTokens(&buf, TokenDocument{Language: "Go"}))
	assert.Contains(t, buf.String(), `"tokens": []`)

	got, err := ReadTokens(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadRecords(t *testing.T) {
	input := "\xEF\xBB\xBFtoken, language ,Component\nI001,Python,loader\n\nF001, Go ,main\nIO001\n"

	records, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []lexsub.Record{
		{Language: "Python", Component: "loader", Token: "I001"},
		{Language: "Go", Component: "main", Token: "F001"},
		{Token: "IO001"},
	}, records)
}

func TestReadRecordsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no token column", "Language,Component\nGo,main\n"},
		{"bad quoting", "Token\n\"F001\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRecords(strings.NewReader(tt.input))
			assert.True(t, errors.Is(err, ErrMalformedInput), "got %v", err)
		})
	}
}

func TestReadRecordsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.csv")
	require.NoError(t, os.WriteFile(path, []byte("Language,Component,Token\nC++,app,I001\n"), 0600))

	records, err := ReadRecordsFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "C++", records[0].Language)
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "tokenized_output_Python.json", TokenizedFileName("Python"))
	assert.Equal(t, "tokenized_output_Python_main.json", TokenizedFileNameFor("Python", "src/main.py", 1))
	assert.Equal(t, "tokenized_output_Python_main_2.json", TokenizedFileNameFor("Python", "lib/main.py", 2))
	assert.Equal(t, "detokenized_output_Python.py", DetokenizedFileName(python.Python))
	assert.Equal(t, "generated_code_python.py", GeneratedFileName(python.Python))
	assert.Equal(t, "generated_code_c++.cpp", GeneratedFileName(cpp.CPP))

	noExt := profile.NewProfile("Ruby").Keyword("def", "F001").MustBuild()
	assert.Equal(t, "generated_code_ruby.ruby", GeneratedFileName(noExt))
}

func TestWriteText(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")

	path, err := WriteText(dir, "generated_code_go.go", "package\nfunc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "generated_code_go.go"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package\nfunc", string(data))
}

func TestWriteTokensKeepsSymbols(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTokens(&buf, TokenDocument{Tokens: []string{"#include <iostream>", "a && b"}}))
	assert.Contains(t, buf.String(), `"#include <iostream>"`)
	assert.Contains(t, buf.String(), `"a && b"`)
}
