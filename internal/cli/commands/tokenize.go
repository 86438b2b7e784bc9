package commands

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leaptoken/internal/cli/output"
	"github.com/leapstack-labs/leaptoken/internal/docio"
	"github.com/leapstack-labs/leaptoken/internal/profilestore"
	"github.com/leapstack-labs/leaptoken/pkg/lexsub"
)

// TokenizeResult summarizes one tokenized source file.
type TokenizeResult struct {
	Source string   `json:"source"`
	Output string   `json:"output,omitempty"`
	Tokens []string `json:"tokens"`
}

// NewTokenizeCommand creates the tokenize command.
func NewTokenizeCommand() *cobra.Command {
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "tokenize <file>...",
		Short: "Convert source files into token documents",
		Long: `Convert each source file into a JSON token document, one token per line.

A line whose trimmed text starts with a keyword of the language profile is
replaced by that keyword's code. Other lines are kept as trimmed text
(--policy passthrough, the default) or omitted (--policy drop).

Files are processed concurrently. A single file is written to
tokenized_output_<Language>.json; several files each get
tokenized_output_<Language>_<name>.json.`,
		Example: `  # Tokenize a Python file
  leaptoken tokenize main.py

  # Tokenize Go sources, dropping unmatched lines
  leaptoken tokenize -l Go --policy drop cmd/*.go

  # Print the token document instead of writing it
  leaptoken tokenize --stdout main.py`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenize(cmd, args, toStdout)
		},
	}

	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Write token documents to stdout instead of files")

	return cmd
}

func runTokenize(cmd *cobra.Command, paths []string, toStdout bool) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	started := time.Now().UTC()
	lang := cc.Cfg.Language

	results, err := TokenizeFiles(ctx, cc.Engine, lang, paths)
	if err != nil {
		return err
	}

	total := 0
	for _, res := range results {
		total += len(res.Tokens)
	}
	defer cc.RecordRun(ctx, profilestore.Run{
		Command:     "tokenize",
		Language:    lang,
		InputCount:  len(paths),
		OutputCount: total,
		StartedAt:   started,
	})

	if toStdout {
		for _, res := range results {
			if err := docio.WriteTokens(cc.Renderer.Writer(), docio.TokenDocument{Tokens: res.Tokens}); err != nil {
				return err
			}
		}
		return nil
	}

	if err := WriteTokenDocuments(cc.Cfg.OutputDir, lang, results); err != nil {
		return err
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}
	for _, res := range results {
		r.StatusLine(res.Source, "success", fmt.Sprintf("%d tokens -> %s", len(res.Tokens), res.Output))
	}
	return nil
}

// TokenizeFiles reads and tokenizes paths concurrently. Results keep the
// order of paths. The first failure cancels the remaining work.
func TokenizeFiles(ctx context.Context, eng *lexsub.Engine, lang string, paths []string) ([]TokenizeResult, error) {
	if _, err := eng.Registry().Resolve(lang); err != nil {
		return nil, err
	}

	results := make([]TokenizeResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := docio.ReadSourceFile(path)
			if err != nil {
				return err
			}
			tokens, err := eng.Tokenize(src, lang)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = TokenizeResult{Source: path, Tokens: tokens}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// WriteTokenDocuments writes each result to its token document under dir
// and records the path in the result. Sources sharing a base name get
// numbered documents.
func WriteTokenDocuments(dir, lang string, results []TokenizeResult) error {
	used := make(map[string]bool, len(results))
	for i := range results {
		name := docio.TokenizedFileName(lang)
		if len(results) > 1 {
			name = uniqueTokenizedName(lang, results[i].Source, used)
		}

		var buf bytes.Buffer
		if err := docio.WriteTokens(&buf, docio.TokenDocument{Tokens: results[i].Tokens}); err != nil {
			return err
		}
		path, err := docio.WriteText(dir, name, buf.String())
		if err != nil {
			return err
		}
		results[i].Output = path
	}
	return nil
}

func uniqueTokenizedName(lang, source string, used map[string]bool) string {
	for n := 1; ; n++ {
		name := docio.TokenizedFileNameFor(lang, source, n)
		if !used[name] {
			used[name] = true
			return name
		}
	}
}
