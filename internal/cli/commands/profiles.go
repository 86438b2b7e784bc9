package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaptoken/internal/cli/output"
	"github.com/leapstack-labs/leaptoken/internal/profileload"
	"github.com/leapstack-labs/leaptoken/internal/profilestore"
	"github.com/leapstack-labs/leaptoken/pkg/profile"
)

// ProfileSummary describes one registered profile.
type ProfileSummary struct {
	Name        string `json:"name"`
	Extension   string `json:"extension"`
	Comment     string `json:"comment"`
	Entries     int    `json:"entries"`
	Fingerprint string `json:"fingerprint"`
	Stored      bool   `json:"stored,omitempty"`
}

// ProfileEntry is one pattern/code pair of a profile.
type ProfileEntry struct {
	Pattern string `json:"pattern"`
	Code    string `json:"code"`
}

// ProfileDetail is the full view of a profile.
type ProfileDetail struct {
	ProfileSummary
	Items            []ProfileEntry `json:"items"`
	DuplicateCodes   []string       `json:"duplicate_codes"`
	ShadowedPatterns []string       `json:"shadowed_patterns"`
}

// ImportResult reports one imported profile.
type ImportResult struct {
	Source  string `json:"source"`
	Name    string `json:"name"`
	Changed bool   `json:"changed"`
}

// NewProfilesCommand creates the profiles command group.
func NewProfilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "Inspect and manage language profiles",
		Long: `Inspect and manage the language profiles used for tokenization.

Profiles come from three layers, later layers replacing earlier ones by name:
  1. Built-in profiles (Python, JavaScript, C++, Go)
  2. YAML files in the profiles directory
  3. Profiles imported into the profile store (--profile-db)`,
	}

	cmd.AddCommand(
		newProfilesListCommand(),
		newProfilesShowCommand(),
		newProfilesImportCommand(),
		newProfilesExportCommand(),
		newProfilesDeleteCommand(),
	)

	return cmd
}

func newProfilesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered profiles",
		Example: `  # List profiles
  leaptoken profiles list

  # List profiles as JSON
  leaptoken profiles list -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			summaries := SummarizeProfiles(cc.Registry)
			if cc.Store != nil {
				stored, err := cc.Store.ListProfiles(cmd.Context())
				if err != nil {
					return err
				}
				markStored(summaries, stored)
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(summaries)
			}

			r.Header(1, fmt.Sprintf("Profiles (%d total)", len(summaries)))
			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				source := ""
				if s.Stored {
					source = "store"
				}
				rows = append(rows, []string{s.Name, s.Extension, strconv.Itoa(s.Entries), shortFingerprint(s.Fingerprint), source})
			}
			r.Table([]string{"Name", "Extension", "Entries", "Fingerprint", "Source"}, rows)
			return nil
		},
	}
}

func newProfilesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <language>",
		Short: "Show the entries of a profile",
		Example: `  # Show the Python keyword table
  leaptoken profiles show Python`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := cc.Registry.Resolve(args[0])
			if err != nil {
				return err
			}
			detail := DescribeProfile(p)

			r := cc.Renderer
			if len(detail.DuplicateCodes) > 0 {
				r.Warning(fmt.Sprintf("codes shared by several patterns reconstruct to the last one: %s", strings.Join(detail.DuplicateCodes, ", ")))
			}
			if len(detail.ShadowedPatterns) > 0 {
				r.Warning(fmt.Sprintf("patterns shadowed by an earlier entry never match: %s", strings.Join(detail.ShadowedPatterns, ", ")))
			}
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(detail)
			}

			r.Header(1, detail.Name)
			r.Println(output.FormatKeyValue("Extension", detail.Extension))
			r.Println(output.FormatKeyValue("Comment", detail.Comment))
			r.Println(output.FormatKeyValue("Fingerprint", detail.Fingerprint))
			r.Println("")

			rows := make([][]string, 0, len(detail.Items))
			for _, e := range detail.Items {
				rows = append(rows, []string{e.Pattern, e.Code})
			}
			r.Table([]string{"Pattern", "Code"}, rows)
			return nil
		},
	}
}

func newProfilesImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>...",
		Short: "Import YAML profiles into the profile store",
		Long: `Import one or more YAML profile files into the profile store.

A stored profile replaces any built-in or directory profile of the same
name. Importing an identical profile again is reported as unchanged.`,
		Example: `  # Import a profile
  leaptoken --profile-db .leaptoken/profiles.db profiles import rust.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			store, err := cc.RequireStore("profiles import")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var results []ImportResult
			for _, path := range args {
				loaded, err := profileload.LoadFile(path)
				if err != nil {
					return err
				}
				for _, p := range loaded {
					changed, err := store.SaveProfile(ctx, p)
					if err != nil {
						return err
					}
					results = append(results, ImportResult{Source: path, Name: p.Name(), Changed: changed})
				}
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(results)
			}
			for _, res := range results {
				status, detail := "success", "imported from "+res.Source
				if !res.Changed {
					status, detail = "skipped", "unchanged"
				}
				r.StatusLine(res.Name, status, detail)
			}
			return nil
		},
	}
}

func newProfilesExportCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export <language>",
		Short: "Write a profile as YAML",
		Example: `  # Print the Go profile
  leaptoken profiles export Go

  # Start a custom profile from a built-in one
  leaptoken profiles export JavaScript --file profiles/javascript.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := cc.Registry.Resolve(args[0])
			if err != nil {
				return err
			}
			if file == "" {
				return profileload.Encode(cc.Renderer.Writer(), p)
			}

			f, err := os.Create(file) //nolint:gosec // path comes from the command line
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", file, err)
			}
			if err := profileload.Encode(f, p); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			cc.Renderer.Success(fmt.Sprintf("exported %s to %s", p.Name(), file))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Write to this file instead of stdout")

	return cmd
}

func newProfilesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <language>",
		Short: "Remove a profile from the profile store",
		Long: `Remove a profile from the profile store. Built-in and directory profiles
of the same name become visible again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContextWithoutEngine(cmd)
			if err != nil {
				return err
			}
			store, err := cc.OpenStore(cmd.Context(), "profiles delete")
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteProfile(cmd.Context(), args[0]); err != nil {
				return err
			}
			cc.Renderer.Success("deleted " + args[0])
			return nil
		},
	}
}

// SummarizeProfiles lists the registry's profiles in registration order.
func SummarizeProfiles(reg *profile.Registry) []ProfileSummary {
	out := make([]ProfileSummary, 0, reg.Len())
	for _, p := range reg.Profiles() {
		out = append(out, summarize(p))
	}
	return out
}

// DescribeProfile returns the full view of p.
func DescribeProfile(p *profile.Profile) ProfileDetail {
	d := ProfileDetail{
		ProfileSummary:   summarize(p),
		Items:            make([]ProfileEntry, 0, p.Len()),
		DuplicateCodes:   p.DuplicateCodes(),
		ShadowedPatterns: p.ShadowedPatterns(),
	}
	for _, e := range p.Entries() {
		d.Items = append(d.Items, ProfileEntry{Pattern: e.Pattern, Code: e.Code})
	}
	if d.DuplicateCodes == nil {
		d.DuplicateCodes = []string{}
	}
	if d.ShadowedPatterns == nil {
		d.ShadowedPatterns = []string{}
	}
	return d
}

// markStored flags summaries whose active profile is the stored one.
func markStored(summaries []ProfileSummary, stored []profilestore.ProfileInfo) {
	byName := make(map[string]string, len(stored))
	for _, info := range stored {
		byName[info.Name] = info.Fingerprint
	}
	for i := range summaries {
		if fp, ok := byName[summaries[i].Name]; ok && fp == summaries[i].Fingerprint {
			summaries[i].Stored = true
		}
	}
}

func summarize(p *profile.Profile) ProfileSummary {
	return ProfileSummary{
		Name:        p.Name(),
		Extension:   p.Extension(),
		Comment:     p.CommentPrefix(),
		Entries:     p.Len(),
		Fingerprint: p.Fingerprint(),
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
