package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yildizm/glancelog/internal/analyzer"
	"github.com/yildizm/glancelog/internal/common"
	"github.com/yildizm/glancelog/internal/formatter"
	"github.com/yildizm/glancelog/internal/monitor"
)

// patternFlags are shared by every grouping mode
type patternFlags struct {
	lowcount  int
	sample    bool
	nosample  bool
	allsample bool
}

// addPatternFlags registers the grouping flags on cmd
func addPatternFlags(cmd *cobra.Command, pf *patternFlags) {
	cmd.Flags().IntVarP(&pf.lowcount, "lowcount", "l", analyzer.DefaultThreshold, "show sample lines for patterns seen at most this often")
	cmd.Flags().BoolVar(&pf.sample, "sample", false, "show samples for low count patterns (default)")
	cmd.Flags().BoolVar(&pf.nosample, "nosample", false, "always show the pattern key")
	cmd.Flags().BoolVar(&pf.allsample, "allsample", false, "always show sample lines")
	cmd.MarkFlagsMutuallyExclusive("sample", "nosample", "allsample")
}

// modeDescriptions documents each grouping mode
var modeDescriptions = []struct {
	mode  analyzer.Mode
	short string
	long  string
}{
	{
		mode:  analyzer.ModeHash,
		short: "Collapse similar lines into patterns",
		long: `Replace variable data (numbers, addresses, ids) with '#' using the
hash.stopwords filter and count the resulting patterns. Patterns seen
no more than --lowcount times show their original lines instead.`,
	},
	{
		mode:  analyzer.ModeDaemon,
		short: "Count entries per daemon",
		long:  `Count entries per daemon, program or request method.`,
	},
	{
		mode:  analyzer.ModeHost,
		short: "Count entries per host",
		long:  `Count entries per host or client address.`,
	},
	{
		mode:  analyzer.ModeWords,
		short: "Count words across all messages",
		long: `Split filtered messages into words and count every distinct word.
The words.stopwords filter removes noise before counting.`,
	},
	{
		mode:  analyzer.ModeTemplate,
		short: "Group lines by mined message templates",
		long: `Mine message templates with a fixed depth parse tree and group every
line under its template. Variable tokens print as <*>. Tuned by the
template section of the configuration file.`,
	},
}

// newPatternCommands creates one command per grouping mode
func newPatternCommands() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(modeDescriptions))
	for _, desc := range modeDescriptions {
		cmds = append(cmds, newPatternCommand(desc.mode, desc.short, desc.long))
	}
	return cmds
}

func newPatternCommand(mode analyzer.Mode, short, long string) *cobra.Command {
	pf := &patternFlags{}

	cmd := &cobra.Command{
		Use:   string(mode) + " [file]",
		Short: short,
		Long:  long,
		Example: fmt.Sprintf(`  glancelog %[1]s /var/log/syslog
  journalctl | glancelog %[1]s --nosample
  glancelog %[1]s -l 5 --from "2024-03-01 10:00" app.log`, mode),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatterns(cmd, args, mode, pf)
		},
	}

	addPatternFlags(cmd, pf)
	return cmd
}

// runPatterns parses the input, groups it by mode and writes the table
func runPatterns(cmd *cobra.Command, args []string, mode analyzer.Mode, pf *patternFlags) error {
	tracker := monitor.NewTracker()
	defer logRunStats(tracker)

	var (
		log    *common.Log
		source string
	)
	err := tracker.TrackWithError(monitor.OperationParse, func() (err error) {
		log, source, err = loadInput(cmd, args)
		return err
	})
	if err != nil {
		return err
	}
	tracker.RecordEntries(log.Len())

	var (
		opts         analyzer.Options
		filterSource string
	)
	err = tracker.TrackWithError(monitor.OperationFilter, func() (err error) {
		opts, filterSource, err = patternOptions(cmd, mode, pf)
		return err
	})
	if err != nil {
		return err
	}

	var report *formatter.Report
	tracker.Track(monitor.OperationAnalyze, func() {
		report = buildPatternReport(source, log, opts)
	})
	report.FilterSource = filterSource

	return tracker.TrackWithError(monitor.OperationRender, func() error {
		return writeReport(cmd, report)
	})
}

// patternOptions resolves the filter and sampling for a grouping run
func patternOptions(cmd *cobra.Command, mode analyzer.Mode, pf *patternFlags) (analyzer.Options, string, error) {
	cfg := GetGlobalConfig()

	f, filterSource, err := loadFilter(string(mode))
	if err != nil {
		return analyzer.Options{}, "", err
	}

	threshold := cfg.Hash.LowCount
	if cmd.Flags().Changed("lowcount") {
		threshold = pf.lowcount
	}
	if threshold < 1 {
		return analyzer.Options{}, "", fmt.Errorf("--lowcount must be greater than 0")
	}

	sampling, err := resolveSampling(cmd, pf, cfg.Hash.Sampling)
	if err != nil {
		return analyzer.Options{}, "", err
	}

	return analyzer.Options{
		Mode:      mode,
		Filter:    f,
		Threshold: threshold,
		Sampling:  sampling,
		Template:  cfg.Template,
	}, filterSource, nil
}

// resolveSampling lets an explicit flag win over the configured policy
func resolveSampling(cmd *cobra.Command, pf *patternFlags, configured string) (analyzer.Sampling, error) {
	switch {
	case cmd.Flags().Changed("allsample") && pf.allsample:
		return analyzer.SamplingAll, nil
	case cmd.Flags().Changed("nosample") && pf.nosample:
		return analyzer.SamplingNone, nil
	case cmd.Flags().Changed("sample") && pf.sample:
		return analyzer.SamplingThreshold, nil
	}
	return analyzer.ParseSampling(configured)
}

// buildPatternReport builds the table and wraps it in a report
func buildPatternReport(source string, log *common.Log, opts analyzer.Options) *formatter.Report {
	table := analyzer.Build(log.Entries, opts)
	cliLogger().Debug("%d distinct %s patterns from %d entries", table.Len(), opts.Mode, table.Total)

	report := formatter.NewReport(source, string(opts.Mode), log)
	report.Patterns = table
	return report
}
