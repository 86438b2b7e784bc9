package profileload

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leaptoken/internal/testutil"
	"github.com/leapstack-labs/leaptoken/pkg/profile"
	"github.com/leapstack-labs/leaptoken/pkg/profiles/golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rubyYAML = `name: Ruby
extension: rb
comment: "#"
entries:
  - pattern: def
    code: F001
  - pattern: puts
    code: IO001
  - {pattern: end, code: B001}
---
name: Lua
entries:
  - pattern: function
    code: F001
`

func TestDecode(t *testing.T) {
	got, err := Decode(strings.NewReader(rubyYAML))
	require.NoError(t, err)
	require.Len(t, got, 2)

	ruby := got[0]
	assert.Equal(t, "Ruby", ruby.Name())
	assert.Equal(t, "rb", ruby.Extension())
	assert.Equal(t, []profile.Entry{{Pattern: "def", Code: "F001"}, {Pattern: "puts", Code: "IO001"}, {Pattern: "end", Code: "B001"}}, ruby.Entries())

	lua := got[1]
	assert.Equal(t, profile.DefaultCommentPrefix, lua.CommentPrefix())
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown field", "name: X\nkeywords: []\n"},
		{"invalid entry", "name: X\nentries:\n  - pattern: \"\"\n    code: A\n"},
		{"missing name", "entries:\n  - {pattern: a, code: A}\n"},
		{"not yaml", "name: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, golang.Go))

	got, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, golang.Go.Fingerprint(), got[0].Fingerprint())
	assert.Equal(t, golang.Go.Extension(), got[0].Extension())
	assert.Equal(t, golang.Go.CommentPrefix(), got[0].CommentPrefix())
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_ruby.yaml"), []byte(rubyYAML), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_go.yml"), []byte("name: Go\nentries:\n  - {pattern: go, code: G001}\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0750))

	got, err := LoadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, p := range got {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"Go", "Ruby", "Lua"}, names)

	missing, err := LoadDir(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestBuildLayersSources(t *testing.T) {
	dir := t.TempDir()
	override := "name: Go\nextension: go\ncomment: //\nentries:\n  - {pattern: package, code: PKG}\n  - {pattern: goto, code: PKG}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.yaml"), []byte(override), 0600))

	logger, logs := testutil.NewCaptureLogger()
	reg, err := Build(context.Background(), logger, BuiltinSource{}, DirSource{Dir: dir}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Python", "JavaScript", "Go", "C++"}, reg.Names())

	goProfile, err := reg.Resolve("Go")
	require.NoError(t, err)
	assert.Equal(t, 2, goProfile.Len(), "directory profile replaces the built-in one")
	assert.Contains(t, logs.String(), "duplicate codes")
}

type failingSource struct{}

func (failingSource) SourceName() string { return "failing" }

func (failingSource) LoadProfiles(context.Context) ([]*profile.Profile, error) {
	return nil, errors.New("boom")
}

func TestBuildSourceError(t *testing.T) {
	_, err := Build(context.Background(), nil, BuiltinSource{}, failingSource{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
	assert.Contains(t, err.Error(), "boom")

	reg, err := Build(context.Background(), nil, DirSource{})
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}
