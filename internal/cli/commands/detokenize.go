package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaptoken/internal/cli/output"
	"github.com/leapstack-labs/leaptoken/internal/docio"
	"github.com/leapstack-labs/leaptoken/internal/profilestore"
	"github.com/leapstack-labs/leaptoken/pkg/lexsub"
)

// DetokenizeResult summarizes one reconstructed token document.
type DetokenizeResult struct {
	Source     string              `json:"source"`
	Output     string              `json:"output,omitempty"`
	Language   string              `json:"language"`
	Lines      int                 `json:"lines"`
	Unresolved []lexsub.Unresolved `json:"unresolved"`
}

// NewDetokenizeCommand creates the detokenize command.
func NewDetokenizeCommand() *cobra.Command {
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "detokenize <tokens.json>",
		Short: "Reconstruct source from a token document",
		Long: `Reconstruct source text from a JSON token document.

Each token is replaced by the keyword it stands for. A token the profile
does not know becomes a comment line "<comment> UNKNOWN TOKEN: <token>" and
is reported as a warning.

Output is written to detokenized_output_<Language>.<ext>.`,
		Example: `  # Reconstruct a Python token document
  leaptoken detokenize tokenized_output_Python.json

  # Reconstruct JavaScript and print it
  leaptoken detokenize -l JavaScript --stdout tokens.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetokenize(cmd, args[0], toStdout)
		},
	}

	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Write the reconstructed source to stdout instead of a file")

	return cmd
}

func runDetokenize(cmd *cobra.Command, path string, toStdout bool) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	started := time.Now().UTC()
	lang := cc.Cfg.Language

	tokens, err := docio.ReadTokensFile(path)
	if err != nil {
		return err
	}
	rec, err := cc.Engine.Reconstruct(tokens, lang)
	if err != nil {
		return err
	}

	defer cc.RecordRun(ctx, profilestore.Run{
		Command:     "detokenize",
		Language:    lang,
		InputCount:  len(tokens),
		OutputCount: len(rec.Lines),
		Unresolved:  len(rec.Unresolved),
		StartedAt:   started,
	})

	r := cc.Renderer
	warnUnresolved(r, rec.Unresolved)

	if toStdout {
		r.Println(rec.Text())
		return nil
	}

	res, err := WriteReconstruction(cc, path, rec)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}
	r.StatusLine(path, "success", fmt.Sprintf("%d lines -> %s", res.Lines, res.Output))
	return nil
}

// WriteReconstruction writes rec to its output file and summarizes it.
func WriteReconstruction(cc *CommandContext, source string, rec *lexsub.Reconstruction) (*DetokenizeResult, error) {
	p, err := cc.Registry.Resolve(rec.Language)
	if err != nil {
		return nil, err
	}
	out, err := docio.WriteText(cc.Cfg.OutputDir, docio.DetokenizedFileName(p), rec.Text())
	if err != nil {
		return nil, err
	}

	unresolved := rec.Unresolved
	if unresolved == nil {
		unresolved = []lexsub.Unresolved{}
	}
	return &DetokenizeResult{
		Source:     source,
		Output:     out,
		Language:   rec.Language,
		Lines:      len(rec.Lines),
		Unresolved: unresolved,
	}, nil
}

// maxListedTokens caps how many unresolved tokens a warning names.
const maxListedTokens = 10

func warnUnresolved(r *output.Renderer, unresolved []lexsub.Unresolved) {
	if len(unresolved) == 0 {
		return
	}
	names := make([]string, 0, maxListedTokens)
	for i, u := range unresolved {
		if i == maxListedTokens {
			names = append(names, "...")
			break
		}
		names = append(names, fmt.Sprintf("%q (line %d)", u.Token, u.Index+1))
	}
	r.Warning(fmt.Sprintf("%d unresolved tokens: %s", len(unresolved), strings.Join(names, ", ")))
}
