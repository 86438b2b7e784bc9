package commands

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaptoken/internal/cli/output"
	"github.com/leapstack-labs/leaptoken/internal/profilestore"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs from the profile store",
		Long: `Show recent tokenize, detokenize and render runs, newest first.

Runs are recorded only when a profile store is configured and history is
enabled (--history or history: true in leaptoken.yaml).`,
		Example: `  # Show the last 20 runs
  leaptoken history

  # Show the last 5 runs as JSON
  leaptoken history --limit 5 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	cc, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return err
	}
	store, err := cc.OpenStore(cmd.Context(), "history")
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if version, err := store.MigrationVersion(cmd.Context()); err == nil {
		cc.Logger.Debug("profile store opened", slog.String("path", cc.Cfg.ProfileDB), slog.Int64("schema_version", version))
	}

	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []profilestore.Run{}
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(runs)
	}
	if len(runs) == 0 {
		r.Muted("no runs recorded")
		return nil
	}

	r.Header(1, fmt.Sprintf("Recent runs (%d)", len(runs)))
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.StartedAt.Local().Format(time.DateTime),
			run.Command,
			run.Language,
			strconv.Itoa(run.InputCount),
			strconv.Itoa(run.OutputCount),
			strconv.Itoa(run.Unresolved),
		})
	}
	r.Table([]string{"Started", "Command", "Language", "Inputs", "Outputs", "Unresolved"}, rows)
	return nil
}
