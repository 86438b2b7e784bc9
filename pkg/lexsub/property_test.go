package lexsub

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/leaptoken/pkg/profile"
	"github.com/leapstack-labs/leaptoken/pkg/profiles"
	"pgregory.net/rapid"
)

func TestProperty_PassthroughPreservesLineCount(t *testing.T) {
	e := New(profiles.Registry())
	names := profiles.Registry().Names()

	rapid.Check(t, func(rt *rapid.T) {
		lang := rapid.SampledFrom(names).Draw(rt, "language")
		text := rapid.String().Draw(rt, "text")

		tokens, err := e.Tokenize(text, lang)
		if err != nil {
			rt.Fatalf("tokenize: %v", err)
		}
		if want := strings.Count(text, "\n") + 1; len(tokens) != want {
			rt.Fatalf("got %d tokens for %d lines", len(tokens), want)
		}
	})
}

func TestProperty_AnchoredKeywordYieldsItsCode(t *testing.T) {
	e := New(profiles.Registry())

	rapid.Check(t, func(rt *rapid.T) {
		p := rapid.SampledFrom(profiles.Builtin()).Draw(rt, "profile")
		entry := rapid.SampledFrom(p.Entries()).Draw(rt, "entry")
		indent := rapid.StringMatching(`[ \t]{0,8}`).Draw(rt, "indent")
		rest := rapid.StringMatching(`( [a-z0-9 ()'.,:;=]*)?`).Draw(rt, "rest")
		line := indent + entry.Pattern + rest
		if first, _ := p.Match(strings.TrimSpace(line)); first != entry {
			rt.Skip("an earlier entry matches the line")
		}

		tokens, err := e.Tokenize(line, p.Name())
		if err != nil {
			rt.Fatalf("tokenize: %v", err)
		}
		if len(tokens) != 1 || tokens[0] != entry.Code {
			rt.Fatalf("line %q: got %v, want [%s]", line, tokens, entry.Code)
		}
	})
}

func TestProperty_RoundTripUniqueCodes(t *testing.T) {
	e := New(profiles.Registry())

	rapid.Check(t, func(rt *rapid.T) {
		p := rapid.SampledFrom(profiles.Builtin()).Draw(rt, "profile")
		codes := make([]string, 0, p.Len())
		for _, entry := range p.Entries() {
			codes = append(codes, entry.Code)
		}
		tokens := rapid.SliceOfN(rapid.SampledFrom(codes), 1, 50).Draw(rt, "tokens")

		text, err := e.Detokenize(tokens, p.Name())
		if err != nil {
			rt.Fatalf("detokenize: %v", err)
		}
		again, err := e.Tokenize(text, p.Name())
		if err != nil {
			rt.Fatalf("tokenize: %v", err)
		}
		if strings.Join(again, ",") != strings.Join(tokens, ",") {
			rt.Fatalf("round trip: got %v, want %v", again, tokens)
		}
	})
}

func TestProperty_UnknownTokenIsMarked(t *testing.T) {
	e := New(profiles.Registry())

	rapid.Check(t, func(rt *rapid.T) {
		p := rapid.SampledFrom(profiles.Builtin()).Draw(rt, "profile")
		tok := rapid.StringMatching(`[A-Z]{1,4}[0-9]{0,4}`).Draw(rt, "token")
		if _, known := p.Pattern(tok); known {
			rt.Skip("token is a registered code")
		}

		r, err := e.Reconstruct([]string{tok}, p.Name())
		if err != nil {
			rt.Fatalf("reconstruct: %v", err)
		}
		line := r.Lines[0]
		if line == "" || line == tok || !strings.Contains(line, "UNKNOWN TOKEN") || !strings.Contains(line, tok) {
			rt.Fatalf("token %q rendered as %q", tok, line)
		}
		if len(r.Unresolved) != 1 {
			rt.Fatalf("expected one unresolved token, got %v", r.Unresolved)
		}
	})
}

// Passthrough text that collides with a code is reconstructed as that
// code's pattern. This pins the documented ambiguity.
func TestPassthroughCollisionIsAmbiguous(t *testing.T) {
	p := profile.NewProfile("X").Keyword("let", "V001").MustBuild()
	e := New(profile.NewRegistry(p))

	tokens, err := e.Tokenize("V001", "X")
	if err != nil {
		t.Fatal(err)
	}
	text, err := e.Detokenize(tokens, "X")
	if err != nil {
		t.Fatal(err)
	}
	if text != "let" {
		t.Fatalf("got %q", text)
	}
}
