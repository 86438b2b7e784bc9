package lexsub

import (
	"log/slog"
	"strings"
)

// Record is one row of a tabular token source.
type Record struct {
	Language  string `json:"language"`
	Component string `json:"component,omitempty"` // provenance only
	Token     string `json:"token"`
}

// RecordIssue points at a record that could not be rendered as code.
type RecordIssue struct {
	Index  int    `json:"index"`
	Record Record `json:"record"`
}

// Rendering holds per-language output lines built from records.
type Rendering struct {
	// Languages lists languages in order of first appearance.
	Languages []string
	Lines     map[string][]string
	// Unresolved lists records whose token had no pattern; each produced a
	// marker line.
	Unresolved []RecordIssue
	// Unsupported lists records skipped because their language has no
	// profile.
	Unsupported []RecordIssue
}

// Text returns the output for one language.
func (r *Rendering) Text(language string) string {
	return strings.Join(r.Lines[language], "\n")
}

// Texts returns the output of every language.
func (r *Rendering) Texts() map[string]string {
	out := make(map[string]string, len(r.Languages))
	for _, lang := range r.Languages {
		out[lang] = r.Text(lang)
	}
	return out
}

// RenderRecords groups records by language and reconstructs one line per
// record, preserving record order within each language. A record with no
// language uses the engine's default language.
func (e *Engine) RenderRecords(records []Record) *Rendering {
	out := &Rendering{
		Lines: make(map[string][]string),
	}

	for i, rec := range records {
		lang := rec.Language
		if lang == "" {
			lang = e.defaultLanguage
		}

		p, err := e.registry.Resolve(lang)
		if err != nil {
			out.Unsupported = append(out.Unsupported, RecordIssue{Index: i, Record: rec})
			continue
		}

		line, ok := e.resolveToken(p, rec.Token)
		if !ok {
			out.Unresolved = append(out.Unresolved, RecordIssue{Index: i, Record: rec})
		}

		if _, seen := out.Lines[lang]; !seen {
			out.Languages = append(out.Languages, lang)
		}
		out.Lines[lang] = append(out.Lines[lang], line)
	}

	e.logger.Debug("rendered records",
		slog.Int("records", len(records)),
		slog.Int("languages", len(out.Languages)),
		slog.Int("unresolved", len(out.Unresolved)),
		slog.Int("unsupported", len(out.Unsupported)),
	)
	return out
}
