package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leaptoken/internal/cli/output"
	"github.com/leapstack-labs/leaptoken/internal/docio"
	"github.com/leapstack-labs/leaptoken/internal/profilestore"
	"github.com/leapstack-labs/leaptoken/pkg/lexsub"
)

// RenderOutput is one generated file of a batch render.
type RenderOutput struct {
	Language string `json:"language"`
	Output   string `json:"output"`
	Lines    int    `json:"lines"`
}

// RenderResult summarizes a batch render.
type RenderResult struct {
	Source      string               `json:"source"`
	Records     int                  `json:"records"`
	Outputs     []RenderOutput       `json:"outputs"`
	Unresolved  []lexsub.RecordIssue `json:"unresolved"`
	Unsupported []lexsub.RecordIssue `json:"unsupported"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <records.csv>",
		Short: "Generate per-language source from a record table",
		Long: `Generate source files from a CSV table of (Language, Component, Token) records.

Records are grouped by language in table order; each record becomes one
line. Records naming no language use the configured default language.
Records whose language has no profile are skipped with a warning.

Each language is written to generated_code_<language>.<ext>.`,
		Example: `  # Render a record table
  leaptoken render components.csv

  # Render into a separate directory
  leaptoken render --output-dir build components.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0])
		},
	}

	return cmd
}

func runRender(cmd *cobra.Command, path string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	started := time.Now().UTC()

	res, err := RenderFile(ctx, cc, path)
	if err != nil {
		return err
	}

	defer cc.RecordRun(ctx, profilestore.Run{
		Command:     "render",
		InputCount:  res.Records,
		OutputCount: len(res.Outputs),
		Unresolved:  len(res.Unresolved),
		StartedAt:   started,
	})

	r := cc.Renderer
	warnRecordIssues(r, res)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}
	for _, out := range res.Outputs {
		r.StatusLine(out.Language, "success", fmt.Sprintf("%d lines -> %s", out.Lines, out.Output))
	}
	if len(res.Outputs) == 0 {
		r.Muted("no records rendered")
	}
	return nil
}

// warnRecordIssues reports skipped and unresolved records on stderr.
func warnRecordIssues(r *output.Renderer, res *RenderResult) {
	for _, issue := range res.Unsupported {
		r.Warning(fmt.Sprintf("record %d skipped: unsupported language %q", issue.Index+1, issue.Record.Language))
	}
	for _, issue := range res.Unresolved {
		r.Warning(fmt.Sprintf("record %d: unresolved token %q for %s", issue.Index+1, issue.Record.Token, issue.Record.Language))
	}
}

// RenderFile reads a record table, renders it and writes one file per
// language concurrently.
func RenderFile(ctx context.Context, cc *CommandContext, path string) (*RenderResult, error) {
	records, err := docio.ReadRecordsFile(path)
	if err != nil {
		return nil, err
	}
	rendering := cc.Engine.RenderRecords(records)

	res := &RenderResult{
		Source:      path,
		Records:     len(records),
		Outputs:     make([]RenderOutput, len(rendering.Languages)),
		Unresolved:  nonNilIssues(rendering.Unresolved),
		Unsupported: nonNilIssues(rendering.Unsupported),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, lang := range rendering.Languages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := cc.Registry.Resolve(lang)
			if err != nil {
				return err
			}
			out, err := docio.WriteText(cc.Cfg.OutputDir, docio.GeneratedFileName(p), rendering.Text(lang))
			if err != nil {
				return err
			}
			res.Outputs[i] = RenderOutput{Language: lang, Output: out, Lines: len(rendering.Lines[lang])}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func nonNilIssues(issues []lexsub.RecordIssue) []lexsub.RecordIssue {
	if issues == nil {
		return []lexsub.RecordIssue{}
	}
	return issues
}
