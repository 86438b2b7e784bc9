package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaptoken/pkg/profiles"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display leaptoken version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "leaptoken v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Keyword tokenizer with %d built-in language profiles\n", len(profiles.Builtin()))
		},
	}
}
