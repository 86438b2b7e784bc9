package profile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		wantErr string
	}{
		{
			name:    "empty name",
			builder: NewProfile("").Keyword("if", "C001"),
			wantErr: "name is required",
		},
		{
			name:    "empty pattern",
			builder: NewProfile("x").Keyword("", "C001"),
			wantErr: "pattern is empty",
		},
		{
			name:    "empty code",
			builder: NewProfile("x").Keyword("if", ""),
			wantErr: "code is empty",
		},
		{
			name:    "padded pattern",
			builder: NewProfile("x").Keyword(" if", "C001"),
			wantErr: "surrounding whitespace",
		},
		{
			name:    "multi-line code",
			builder: NewProfile("x").Keyword("if", "C0\n01"),
			wantErr: "spans lines",
		},
		{
			name:    "valid",
			builder: NewProfile("x").Keyword("int main()", "F001"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.builder.Build()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, p)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidProfile))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMustBuildPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewProfile("x").Keyword("", "").MustBuild()
	})
}

func TestProfileAccessors(t *testing.T) {
	p := NewProfile("Go").
		Extension(".go").
		Comment("//").
		Keyword("package", "I001").
		Keyword("func", "F001").
		MustBuild()

	assert.Equal(t, "Go", p.Name())
	assert.Equal(t, "go", p.Extension())
	assert.Equal(t, "//", p.CommentPrefix())
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []Entry{{"package", "I001"}, {"func", "F001"}}, p.Entries())

	// Entries is a copy
	entries := p.Entries()
	entries[0].Code = "MODIFIED"
	assert.Equal(t, "I001", p.Entries()[0].Code)
}

func TestDefaultCommentPrefix(t *testing.T) {
	p := NewProfile("x").Comment("").Keyword("a", "A1").MustBuild()
	assert.Equal(t, DefaultCommentPrefix, p.CommentPrefix())
}

func TestReverseLastDeclaredWins(t *testing.T) {
	p := NewProfile("x").
		Keyword("alpha", "X001").
		Keyword("beta", "X002").
		Keyword("gamma", "X001").
		MustBuild()

	pattern, ok := p.Pattern("X001")
	require.True(t, ok)
	assert.Equal(t, "gamma", pattern)

	_, ok = p.Pattern("X999")
	assert.False(t, ok)

	assert.Equal(t, []string{"X001"}, p.DuplicateCodes())

	rev := p.Reverse()
	rev["X002"] = "MODIFIED"
	pattern, _ = p.Pattern("X002")
	assert.Equal(t, "beta", pattern, "Reverse should return a copy")
}

func TestShadowedPatterns(t *testing.T) {
	p := NewProfile("x").
		Keyword("int", "DT001").
		Keyword("int main()", "F001").
		Keyword("integer", "DT009").
		MustBuild()

	assert.Equal(t, []string{"int main()"}, p.ShadowedPatterns())
}

func TestFingerprint(t *testing.T) {
	a := NewProfile("x").Keyword("if", "C001").Keyword("else", "C003").MustBuild()
	b := NewProfile("x").Keyword("if", "C001").Keyword("else", "C003").MustBuild()
	reordered := NewProfile("x").Keyword("else", "C003").Keyword("if", "C001").MustBuild()
	renamed := NewProfile("y").Keyword("if", "C001").Keyword("else", "C003").MustBuild()

	assert.Len(t, a.Fingerprint(), 64)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), reordered.Fingerprint(), "order is part of the fingerprint")
	assert.NotEqual(t, a.Fingerprint(), renamed.Fingerprint())

	withExt := NewProfile("x").Extension("xx").Keyword("if", "C001").Keyword("else", "C003").MustBuild()
	withComment := NewProfile("x").Comment("//").Keyword("if", "C001").Keyword("else", "C003").MustBuild()
	assert.NotEqual(t, a.Fingerprint(), withExt.Fingerprint(), "extension is part of the fingerprint")
	assert.NotEqual(t, a.Fingerprint(), withComment.Fingerprint(), "comment prefix is part of the fingerprint")
	assert.NotEqual(t, withExt.Fingerprint(), withComment.Fingerprint())
}
