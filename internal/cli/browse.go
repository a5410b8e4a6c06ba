package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yildizm/glancelog/internal/analyzer"
	"github.com/yildizm/glancelog/internal/common"
	"github.com/yildizm/glancelog/internal/parser"
	"github.com/yildizm/glancelog/internal/ui"
)

func newBrowseCommand() *cobra.Command {
	pf := &patternFlags{}

	cmd := &cobra.Command{
		Use:   "browse [file]",
		Short: "Explore hash patterns interactively",
		Long: `Open a terminal browser over the hash patterns of a log. Patterns can
be searched and opened to see their sample lines, and an hourly activity
chart shows when the log was busy.

The input must be a file: the terminal is needed for the keyboard.`,
		Example: `  glancelog browse /var/log/syslog
  glancelog browse --nofilter app.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, source, err := loadInput(cmd, args)
			if err != nil {
				return err
			}

			opts, _, err := patternOptions(cmd, analyzer.ModeHash, pf)
			if err != nil {
				return err
			}

			return ui.Run(source, log, opts)
		},
	}

	addPatternFlags(cmd, pf)
	return cmd
}

// formatDescriptions is shown by the formats command
var formatDescriptions = map[common.Format]string{
	common.FormatSyslog:         "BSD syslog: Mon DD HH:MM:SS host daemon[pid]: message",
	common.FormatRSyslog:        "rsyslog high precision: RFC 3339 timestamp host daemon: message",
	common.FormatJournalctl:     "journalctl short and short-iso output",
	common.FormatApacheCLF:      "Apache common log format",
	common.FormatApacheCombined: "Apache combined log format with referer and agent",
	common.FormatAWSELB:         "AWS classic load balancer access log",
	common.FormatAWSALB:         "AWS application load balancer access log",
	common.FormatMySQL:          "MySQL general query log",
	common.FormatPostgreSQL:     "PostgreSQL server log with the default line prefix",
	common.FormatSecure:         "authentication logs such as /var/log/secure",
	common.FormatEVTX:           "Windows binary event log (detected by signature)",
	common.FormatRaw:            "anything else: one entry per line, message only",
}

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported input formats",
		Long: `List the input dialects in detection priority order. Any name can be
passed to --format to skip detection.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, format := range parser.Formats() {
				fmt.Fprintf(out, "%-16s %s\n", format, formatDescriptions[format])
			}
		},
	}
}
