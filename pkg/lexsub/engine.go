// Package lexsub implements line-level keyword substitution between source
// code and compact token sequences.
//
// Tokenize maps each line to the code of the first profile pattern that
// anchors at the start of the trimmed line, or handles it according to the
// engine's Policy when nothing matches. Detokenize maps codes back to their
// patterns and replaces unknown tokens with a visible marker line.
// RenderRecords applies the reverse mapping to externally supplied
// (language, component, token) records.
//
// An Engine holds no mutable state; one engine may be shared by any number
// of goroutines.
package lexsub

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leaptoken/pkg/profile"
)

// Engine tokenizes and reconstructs source using a profile registry.
type Engine struct {
	registry        *profile.Registry
	policy          Policy
	marker          MarkerFunc
	defaultLanguage string
	logger          *slog.Logger
}

// New creates an engine bound to registry.
func New(registry *profile.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		policy:   Passthrough,
		marker:   DefaultMarker,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = profile.NewRegistry()
	}
	return e
}

// Registry returns the registry the engine resolves languages against.
func (e *Engine) Registry() *profile.Registry {
	return e.registry
}

// Policy returns the unmatched-line policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// WithOptions returns a copy of the engine with opts applied on top of the
// current settings. The registry is shared.
func (e *Engine) WithOptions(opts ...Option) *Engine {
	clone := *e
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// SplitLines splits text into the lines the tokenizer operates on.
// "a\nb" yields two lines; a trailing newline yields a final empty line.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// Tokenize converts source into one token per line. Under Drop, unmatched
// lines are omitted. An unsupported language yields no tokens.
func (e *Engine) Tokenize(source, language string) ([]string, error) {
	p, err := e.registry.Resolve(language)
	if err != nil {
		return nil, err
	}

	lines := SplitLines(source)
	tokens := make([]string, 0, len(lines))
	dropped := 0
	for _, line := range lines {
		tok, matched := tokenizeLine(p, line)
		if !matched && e.policy == Drop {
			dropped++
			continue
		}
		tokens = append(tokens, tok)
	}

	e.logger.Debug("tokenized source",
		slog.String("language", language),
		slog.Int("lines", len(lines)),
		slog.Int("tokens", len(tokens)),
		slog.Int("dropped", dropped),
	)
	return tokens, nil
}

// TokenizeLine tokenizes a single line. matched is false when the returned
// token is the trimmed line itself. The engine policy is not applied.
func (e *Engine) TokenizeLine(line, language string) (token string, matched bool, err error) {
	p, err := e.registry.Resolve(language)
	if err != nil {
		return "", false, err
	}
	token, matched = tokenizeLine(p, line)
	return token, matched, nil
}

func tokenizeLine(p *profile.Profile, line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if entry, ok := p.Match(trimmed); ok {
		return entry.Code, true
	}
	return trimmed, false
}

// Unresolved identifies a token that has no pattern in the profile.
type Unresolved struct {
	Index int    `json:"index"`
	Token string `json:"token"`
}

// Reconstruction is the result of detokenizing a token sequence.
type Reconstruction struct {
	Language   string
	Lines      []string
	Unresolved []Unresolved
}

// Text joins the reconstructed lines with newlines.
func (r *Reconstruction) Text() string {
	return strings.Join(r.Lines, "\n")
}

// Reconstruct maps each token to its pattern. Tokens without a pattern are
// replaced by a marker line and listed in Unresolved.
func (e *Engine) Reconstruct(tokens []string, language string) (*Reconstruction, error) {
	p, err := e.registry.Resolve(language)
	if err != nil {
		return nil, err
	}

	r := &Reconstruction{
		Language: language,
		Lines:    make([]string, len(tokens)),
	}
	for i, tok := range tokens {
		line, ok := e.resolveToken(p, tok)
		if !ok {
			r.Unresolved = append(r.Unresolved, Unresolved{Index: i, Token: tok})
		}
		r.Lines[i] = line
	}

	if len(r.Unresolved) > 0 {
		e.logger.Debug("unresolved tokens",
			slog.String("language", language),
			slog.Int("count", len(r.Unresolved)),
		)
	}
	return r, nil
}

// Detokenize reconstructs source text from tokens.
func (e *Engine) Detokenize(tokens []string, language string) (string, error) {
	r, err := e.Reconstruct(tokens, language)
	if err != nil {
		return "", err
	}
	return r.Text(), nil
}

func (e *Engine) resolveToken(p *profile.Profile, tok string) (string, bool) {
	if pattern, ok := p.Pattern(tok); ok {
		return pattern, true
	}
	return e.marker(p.CommentPrefix(), tok), false
}
