package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/glancelog/internal/emoji"
	"github.com/yildizm/glancelog/internal/filter"
)

// newFiltersCommand creates the filters command with subcommands
func newFiltersCommand() *cobra.Command {
	filtersCmd := &cobra.Command{
		Use:   "filters",
		Short: "Inspect and manage stopword filters",
		Long: `Stopword filters are files of regular expressions, one per line. Every
match is replaced with '#' before lines are grouped. Each grouping mode
reads its own file, searched in this order:

  1. --filter-dir or filters.directory from the configuration
  2. $GLANCELOG_FILTERDIR
  3. ~/.glancelog/filters
  4. ./filters
  5. system directories under /var/lib, /usr/local and /opt
  6. the defaults compiled into glancelog`,
	}

	filtersCmd.AddCommand(newFiltersListCommand())
	filtersCmd.AddCommand(newFiltersPathCommand())
	filtersCmd.AddCommand(newFiltersExportCommand())
	filtersCmd.AddCommand(newFiltersValidateCommand())

	return filtersCmd
}

// newFiltersListCommand shows which file each filter resolves to
func newFiltersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the filter file in effect for each mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := filter.DefaultResolveOptions(filterDir)
			names := filter.EmbeddedNames()

			items := make([]termfmt.TreeItem, 0, len(names))
			for i, name := range names {
				loaded, err := filter.Load(name, opts)
				if err != nil {
					return err
				}
				value := fmt.Sprintf("%d rules", loaded.Filter.Len())
				if len(loaded.Warnings) > 0 {
					value += fmt.Sprintf(", %d invalid", len(loaded.Warnings))
				}
				items = append(items, termfmt.TreeItem{
					Label: name,
					Value: value,
					Children: []termfmt.TreeItem{
						{Label: "Source", Value: string(loaded.Source.Tier)},
						{Label: "Path", Value: loaded.Source.Path, Last: true},
					},
					Last: i == len(names)-1,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, emoji.GetEmoji("filter")+" Filters")
			fmt.Fprintln(out, termfmt.TreeViewWithOptions(items, treeOptions()))
			if noFilter {
				fmt.Fprintln(out, "Filtering is disabled, the built-in fallbacks are used instead")
			}
			return nil
		},
	}
}

// newFiltersPathCommand lists every location searched for each filter
func newFiltersPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path [name]",
		Short: "Show filter file search paths",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := filter.EmbeddedNames()
			if len(args) == 1 {
				names = []string{args[0]}
			}

			opts := filter.DefaultResolveOptions(filterDir)
			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintf(out, "%s (in priority order):\n", name)
				for i, c := range filter.SearchPaths(name, opts) {
					status := "not found"
					if fileExists(c.Path) {
						status = "exists"
					}
					fmt.Fprintf(out, "  %d. %-11s %s (%s)\n", i+1, c.Tier, c.Path, status)
				}
				if _, err := filter.Embedded(name); err == nil {
					fmt.Fprintf(out, "  -  %-11s built in\n", filter.TierEmbedded)
				}
				fmt.Fprintln(out)
			}

			fmt.Fprintf(out, "Set $%s or --filter-dir to add a directory to the front of the search.\n", filter.EnvFilterDir)
			return nil
		},
	}
}

// newFiltersExportCommand writes the built-in filters for editing
func newFiltersExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [dir]",
		Short: "Write the built-in filters to a directory",
		Long: `Write the built-in filter files to a directory so they can be edited.
Without a directory they go to ~/.glancelog/filters, which is searched
automatically.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir string
			if len(args) == 1 {
				dir = args[0]
			} else {
				var err error
				if dir, err = filter.DefaultExportDir(); err != nil {
					return err
				}
			}

			written, err := filter.Export(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, path := range written {
				fmt.Fprintf(out, "%s %s\n", emoji.GetEmoji("success"), path)
			}
			return nil
		},
	}
}

// newFiltersValidateCommand compiles filter files and reports bad rules
func newFiltersValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check filter files for invalid patterns",
		Long: `Compile a filter file and report every line that is not a valid regular
expression. Without a file the filters currently in effect are checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				path := filepath.Clean(args[0])
				// #nosec G304 - the user asked for this file
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read filter: %w", err)
				}
				if invalid := reportFilter(out, path, string(data)); invalid > 0 {
					return fmt.Errorf("%s has %d invalid patterns", path, invalid)
				}
				return nil
			}

			opts := filter.DefaultResolveOptions(filterDir)
			total := 0
			for _, name := range filter.EmbeddedNames() {
				src, err := filter.Resolve(name, opts)
				if err != nil {
					return err
				}
				total += reportFilter(out, src.Path, string(src.Data))
			}
			if total > 0 {
				return fmt.Errorf("%d invalid patterns", total)
			}
			return nil
		},
	}
}

// reportFilter compiles content and prints one line per problem. It returns
// the number of invalid patterns.
func reportFilter(w io.Writer, path, content string) int {
	f, warnings := filter.CompileString(content)
	if len(warnings) == 0 {
		fmt.Fprintf(w, "%s %s: %d rules\n", emoji.GetEmoji("success"), path, f.Len())
		return 0
	}

	fmt.Fprintf(w, "%s %s: %d rules, %d invalid\n", emoji.GetEmoji("error"), path, f.Len(), len(warnings))
	for _, warning := range warnings {
		fmt.Fprintf(w, "   %s\n", strings.TrimSpace(warning.Error()))
	}
	return len(warnings)
}

// treeOptions configures go-termfmt trees for the current flags
func treeOptions() *termfmt.TerminalOptions {
	opts := termfmt.DefaultOptions()
	opts.Color = useColor()
	opts.Emoji = !noEmoji
	return opts
}
