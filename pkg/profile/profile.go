// Package profile provides per-language keyword tables and the registry
// that resolves them by language name.
//
// A Profile is an ordered list of (pattern, code) entries. Order is match
// priority: the tokenizer scans entries in declaration order and the first
// anchored match wins. The reverse table (code -> pattern) is derived once
// at build time; when two patterns share a code the later one wins, which
// makes reconstruction of the earlier pattern impossible.
//
// Built-in tables live in pkg/profiles/*. External sources (YAML documents,
// the SQLite store) construct profiles through the same Builder.
package profile

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// DefaultCommentPrefix is used for unknown-token markers when a profile
// does not declare its own line comment syntax.
const DefaultCommentPrefix = "#"

// ErrInvalidProfile is returned when a profile definition fails validation.
var ErrInvalidProfile = errors.New("invalid profile")

// Entry is a single keyword mapping within a profile.
type Entry struct {
	Pattern string // literal keyword or fixed symbol, anchored at line start
	Code    string // short alphanumeric token code, e.g. "F001"
}

// Profile is an immutable keyword table for one language.
type Profile struct {
	name          string
	extension     string
	commentPrefix string
	entries       []Entry
	reverse       map[string]string
	fingerprint   string
}

// Name returns the language name the profile is registered under.
func (p *Profile) Name() string {
	return p.name
}

// Extension returns the file extension for generated source (without dot).
func (p *Profile) Extension() string {
	return p.extension
}

// CommentPrefix returns the line comment token of the language.
func (p *Profile) CommentPrefix() string {
	return p.commentPrefix
}

// Len returns the number of entries.
func (p *Profile) Len() int {
	return len(p.entries)
}

// Entries returns a copy of the ordered entries.
func (p *Profile) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Pattern returns the pattern registered for code, using last-declared-wins
// for duplicated codes.
func (p *Profile) Pattern(code string) (string, bool) {
	pattern, ok := p.reverse[code]
	return pattern, ok
}

// Reverse returns a copy of the code -> pattern table.
func (p *Profile) Reverse() map[string]string {
	out := make(map[string]string, len(p.reverse))
	for k, v := range p.reverse {
		out[k] = v
	}
	return out
}

// Fingerprint returns a BLAKE3-256 hex digest of the name, extension,
// comment prefix and ordered entries. Two profiles with the same
// fingerprint tokenize and render identically.
func (p *Profile) Fingerprint() string {
	return p.fingerprint
}

// DuplicateCodes returns codes that are shared by more than one pattern,
// in order of first appearance. Reconstruction for these codes is lossy.
func (p *Profile) DuplicateCodes() []string {
	seen := make(map[string]int, len(p.entries))
	var dups []string
	for _, e := range p.entries {
		seen[e.Code]++
		if seen[e.Code] == 2 {
			dups = append(dups, e.Code)
		}
	}
	return dups
}

// ShadowedPatterns returns patterns that can never match because an earlier
// entry anchors on the same text.
func (p *Profile) ShadowedPatterns() []string {
	var shadowed []string
	for i, later := range p.entries {
		for _, earlier := range p.entries[:i] {
			if Anchors(earlier.Pattern, later.Pattern) {
				shadowed = append(shadowed, later.Pattern)
				break
			}
		}
	}
	return shadowed
}

// Builder provides a fluent API for constructing profiles.
type Builder struct {
	p    *Profile
	errs []error
}

// NewProfile creates a profile builder for the given language name.
func NewProfile(name string) *Builder {
	return &Builder{
		p: &Profile{
			name:          name,
			commentPrefix: DefaultCommentPrefix,
		},
	}
}

// Extension sets the file extension used for generated output.
func (b *Builder) Extension(ext string) *Builder {
	b.p.extension = strings.TrimPrefix(ext, ".")
	return b
}

// Comment sets the line comment prefix used in unknown-token markers.
func (b *Builder) Comment(prefix string) *Builder {
	if prefix != "" {
		b.p.commentPrefix = prefix
	}
	return b
}

// Keyword appends a pattern -> code entry. Entries keep declaration order.
func (b *Builder) Keyword(pattern, code string) *Builder {
	if err := validateEntry(pattern, code); err != nil {
		b.errs = append(b.errs, fmt.Errorf("entry %d: %w", len(b.p.entries), err))
	}
	b.p.entries = append(b.p.entries, Entry{Pattern: pattern, Code: code})
	return b
}

// Entries appends entries in bulk.
func (b *Builder) Entries(entries ...Entry) *Builder {
	for _, e := range entries {
		b.Keyword(e.Pattern, e.Code)
	}
	return b
}

// Build validates the definition and returns the constructed profile.
func (b *Builder) Build() (*Profile, error) {
	if strings.TrimSpace(b.p.name) == "" {
		b.errs = append(b.errs, errors.New("name is required"))
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidProfile, b.p.name, errors.Join(b.errs...))
	}

	p := &Profile{
		name:          b.p.name,
		extension:     b.p.extension,
		commentPrefix: b.p.commentPrefix,
		entries:       make([]Entry, len(b.p.entries)),
		reverse:       make(map[string]string, len(b.p.entries)),
	}
	copy(p.entries, b.p.entries)

	// Declaration order; a later duplicate code overwrites the earlier one.
	for _, e := range p.entries {
		p.reverse[e.Code] = e.Pattern
	}
	p.fingerprint = fingerprint(p)

	return p, nil
}

// MustBuild is like Build but panics on invalid definitions.
// Intended for static tables declared at package level.
func (b *Builder) MustBuild() *Profile {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

func validateEntry(pattern, code string) error {
	switch {
	case pattern == "":
		return errors.New("pattern is empty")
	case code == "":
		return fmt.Errorf("pattern %q: code is empty", pattern)
	case strings.TrimSpace(pattern) != pattern:
		return fmt.Errorf("pattern %q has surrounding whitespace", pattern)
	case strings.TrimSpace(code) != code:
		return fmt.Errorf("code %q has surrounding whitespace", code)
	case strings.ContainsAny(pattern, "\r\n"):
		return fmt.Errorf("pattern %q spans lines", pattern)
	case strings.ContainsAny(code, "\r\n"):
		return fmt.Errorf("code %q spans lines", code)
	}
	return nil
}

func fingerprint(p *Profile) string {
	h := blake3.New()
	// NUL-separated so field and entry boundaries are unambiguous.
	for _, field := range []string{p.name, p.extension, p.commentPrefix} {
		_, _ = h.Write([]byte(field))
		_, _ = h.Write([]byte{0})
	}
	for _, e := range p.entries {
		_, _ = h.Write([]byte(e.Pattern))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(e.Code))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
