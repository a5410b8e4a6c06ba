package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/glancelog/internal/analyzer"
	"github.com/yildizm/glancelog/internal/common"
	"github.com/yildizm/glancelog/internal/formatter"
	"github.com/yildizm/glancelog/internal/monitor"
)

type graphFlags struct {
	unit  string
	tick  string
	wide  bool
	width int
}

// graphAliases preset the bucket unit
var graphAliases = []struct {
	name string
	unit analyzer.Unit
}{
	{"sgraph", analyzer.UnitSecond},
	{"mgraph", analyzer.UnitMinute},
	{"hgraph", analyzer.UnitHour},
	{"dgraph", analyzer.UnitDay},
	{"mograph", analyzer.UnitMonth},
	{"ygraph", analyzer.UnitYear},
}

// newGraphCommands creates graph and its fixed-unit shortcuts
func newGraphCommands() []*cobra.Command {
	cmds := []*cobra.Command{newGraphCommand("graph", "")}
	for _, alias := range graphAliases {
		cmds = append(cmds, newGraphCommand(alias.name, alias.unit))
	}
	return cmds
}

// newGraphCommand creates a graph command. A preset unit hides --unit.
func newGraphCommand(name string, preset analyzer.Unit) *cobra.Command {
	gf := &graphFlags{}

	short := "Draw entries per time bucket"
	if preset != "" {
		short = fmt.Sprintf("Draw entries per %s", preset)
	}

	cmd := &cobra.Command{
		Use:   name + " [file]",
		Short: short,
		Long: `Count entries in equally sized time buckets and draw one bar per bucket.

The window starts at --from or at the first timestamped entry. With --to
it ends there, otherwise it covers a default span for the unit (60 seconds,
60 minutes, 24 hours, 31 days, 12 months or 10 years). Empty buckets are
drawn as empty bars.`,
		Example: fmt.Sprintf(`  glancelog %[1]s /var/log/syslog
  glancelog %[1]s --from "2024-03-01" --to "2024-03-02" access.log`, name),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, args, preset, gf)
		},
	}

	if preset == "" {
		cmd.Flags().StringVarP(&gf.unit, "unit", "u", string(analyzer.UnitMinute), "bucket size (second, minute, hour, day, month, year)")
	}
	cmd.Flags().StringVar(&gf.tick, "tick", analyzer.DefaultTick, "bar character")
	cmd.Flags().BoolVar(&gf.wide, "wide", false, "follow each tick with a space")
	cmd.Flags().IntVar(&gf.width, "width", analyzer.DefaultWidth, "length of the longest bar")

	return cmd
}

// runGraph parses the input and writes the bucket series
func runGraph(cmd *cobra.Command, args []string, preset analyzer.Unit, gf *graphFlags) error {
	unit, render, err := graphOptions(cmd, preset, gf)
	if err != nil {
		return err
	}

	tracker := monitor.NewTracker()
	defer logRunStats(tracker)

	var (
		log    *common.Log
		source string
	)
	err = tracker.TrackWithError(monitor.OperationParse, func() (err error) {
		log, source, err = loadInput(cmd, args)
		return err
	})
	if err != nil {
		return err
	}
	tracker.RecordEntries(log.Len())

	from, to, err := timeRange()
	if err != nil {
		return err
	}

	var report *formatter.Report
	err = tracker.TrackWithError(monitor.OperationGraph, func() (err error) {
		report, err = buildGraphReport(source, log, unit, from, to)
		return err
	})
	if err != nil {
		return err
	}
	report.Graph = render

	return tracker.TrackWithError(monitor.OperationRender, func() error {
		return writeReport(cmd, report)
	})
}

// graphOptions resolves the unit and bar style; explicit flags win over the
// configuration
func graphOptions(cmd *cobra.Command, preset analyzer.Unit, gf *graphFlags) (analyzer.Unit, analyzer.RenderOptions, error) {
	cfg := GetGlobalConfig().Graph
	flags := cmd.Flags()

	unit := preset
	if unit == "" {
		name := cfg.Unit
		if flags.Changed("unit") {
			name = gf.unit
		}
		parsed, err := analyzer.ParseUnit(name)
		if err != nil {
			return "", analyzer.RenderOptions{}, err
		}
		unit = parsed
	}

	render := analyzer.RenderOptions{Tick: cfg.Tick, Wide: cfg.Wide, Width: cfg.Width}
	if flags.Changed("tick") {
		render.Tick = gf.tick
	}
	if flags.Changed("wide") {
		render.Wide = gf.wide
	}
	if flags.Changed("width") {
		render.Width = gf.width
	}
	if render.Tick == "" {
		return "", analyzer.RenderOptions{}, fmt.Errorf("--tick must not be empty")
	}
	if render.Width < 1 {
		return "", analyzer.RenderOptions{}, fmt.Errorf("--width must be greater than 0")
	}

	return unit, render, nil
}

// buildGraphReport buckets the log and wraps the series in a report
func buildGraphReport(source string, log *common.Log, unit analyzer.Unit, from, to *time.Time) (*formatter.Report, error) {
	series, err := analyzer.BuildSeries(log.Entries, unit, from, to)
	if err != nil {
		return nil, err
	}
	cliLogger().Debug("%d %s buckets, %d entries counted", series.Len(), unit, series.Total)

	report := formatter.NewReport(source, "graph", log)
	report.Series = series
	return report, nil
}
