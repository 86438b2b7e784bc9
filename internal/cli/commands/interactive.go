package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/leaptoken/internal/docio"
)

// Interactive prompts.
const (
	promptMode       = "Enter mode (tokenize/detokenize/spreadsheet): "
	promptRecords    = "Enter the path to the spreadsheet file: "
	promptLanguage   = "Enter programming language: "
	promptSource     = "Enter the path to the source code file: "
	promptTokensFile = "Enter the path to the tokenized JSON file: "
)

// lineReader reads one answer per prompt.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

type readlineReader struct {
	rl *readline.Instance
}

func (r *readlineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	return line, err
}

func (r *readlineReader) Close() error { return r.rl.Close() }

// scanReader serves piped input. Prompts are still written so transcripts
// read the same as a terminal session.
type scanReader struct {
	sc  *bufio.Scanner
	out io.Writer
}

func (r *scanReader) ReadLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(r.out, prompt)
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

func (r *scanReader) Close() error { return nil }

func newLineReader(in io.Reader, out io.Writer) (lineReader, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		rl, err := readline.NewEx(&readline.Config{
			Stdin:           f,
			Stdout:          out,
			InterruptPrompt: "^C",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize prompt: %w", err)
		}
		return &readlineReader{rl: rl}, nil
	}
	return &scanReader{sc: bufio.NewScanner(in), out: out}, nil
}

// NewInteractiveCommand creates the interactive command.
func NewInteractiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Prompt for a mode, language and file",
		Long: `Prompt for a mode (tokenize, detokenize or spreadsheet), then for the
language and input file that mode needs, and run it once.

An empty language answer uses the configured default language. Input may be
piped, one answer per line.`,
		Example: `  # Start a prompt session
  leaptoken interactive

  # Answer the prompts from a pipe
  printf 'tokenize\nPython\nmain.py\n' | leaptoken interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lr, err := newLineReader(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer func() { _ = lr.Close() }()
			return runInteractive(cmd, lr)
		},
	}
}

func runInteractive(cmd *cobra.Command, lr lineReader) error {
	ask := func(prompt string) (string, error) {
		answer, err := lr.ReadLine(prompt)
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("input ended before %q was answered", strings.TrimSuffix(prompt, ": "))
		}
		return strings.TrimSpace(answer), err
	}

	mode, err := ask(promptMode)
	if err != nil {
		return err
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	r := cc.Renderer

	switch strings.ToLower(mode) {
	case "spreadsheet":
		path, err := ask(promptRecords)
		if err != nil {
			return err
		}
		res, err := RenderFile(ctx, cc, path)
		if err != nil {
			return err
		}
		warnRecordIssues(r, res)
		for _, out := range res.Outputs {
			r.Success(fmt.Sprintf("Code for %s saved as %s", out.Language, out.Output))
		}
		return nil

	case "tokenize":
		lang, err := askLanguage(ask, cc.Cfg.Language)
		if err != nil {
			return err
		}
		path, err := ask(promptSource)
		if err != nil {
			return err
		}
		results, err := TokenizeFiles(ctx, cc.Engine, lang, []string{path})
		if err != nil {
			return err
		}
		if err := WriteTokenDocuments(cc.Cfg.OutputDir, lang, results); err != nil {
			return err
		}
		r.Success("Tokenized output saved as " + results[0].Output)
		return nil

	case "detokenize":
		lang, err := askLanguage(ask, cc.Cfg.Language)
		if err != nil {
			return err
		}
		path, err := ask(promptTokensFile)
		if err != nil {
			return err
		}
		tokens, err := docio.ReadTokensFile(path)
		if err != nil {
			return err
		}
		rec, err := cc.Engine.Reconstruct(tokens, lang)
		if err != nil {
			return err
		}
		warnUnresolved(r, rec.Unresolved)
		res, err := WriteReconstruction(cc, path, rec)
		if err != nil {
			return err
		}
		r.Success("De-tokenized output saved as " + res.Output)
		return nil

	default:
		return fmt.Errorf("unknown mode %q (expected tokenize, detokenize or spreadsheet)", mode)
	}
}

func askLanguage(ask func(string) (string, error), fallback string) (string, error) {
	lang, err := ask(promptLanguage)
	if err != nil {
		return "", err
	}
	if lang == "" {
		return fallback, nil
	}
	return lang, nil
}
