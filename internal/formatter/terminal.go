package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/glancelog/internal/analyzer"
	"github.com/yildizm/glancelog/internal/emoji"
)

var (
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// terminalFormatter writes the plain listing a shell user pipes into less or
// grep, optionally preceded by a summary tree
type terminalFormatter struct {
	opts    *termfmt.TerminalOptions
	summary bool
}

// NewTerminal creates a new terminal formatter
func NewTerminal(o Options) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = o.Color
	opts.Emoji = o.Emoji
	return &terminalFormatter{opts: opts, summary: o.Summary}
}

func (f *terminalFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder

	if f.summary {
		f.writeHeader(&b, report)
		f.writeStatistics(&b, report)
	}

	if report.Patterns != nil {
		f.writePatterns(&b, report.Patterns)
	}
	if report.Series != nil {
		if f.summary {
			f.writeGraphStats(&b, report.Series, report.Graph.Width)
		}
		f.writeGraph(&b, report.Series, report.Graph)
	}

	return []byte(b.String()), nil
}

// writeHeader writes a boxed title
func (f *terminalFormatter) writeHeader(b *strings.Builder, report *Report) {
	header := fmt.Sprintf("glancelog %s", modeTitle(report.Mode))
	headerLen := len(header)

	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")
}

// writeStatistics writes input statistics as a tree
func (f *terminalFormatter) writeStatistics(b *strings.Builder, report *Report) {
	b.WriteString(emoji.GetEmoji("statistics") + " Statistics\n")

	entries := formatNumber(report.Entries)
	if report.Malformed > 0 {
		entries = fmt.Sprintf("%s (%s malformed)", entries, formatNumber(report.Malformed))
	}

	items := []termfmt.TreeItem{
		{Label: "Source", Value: report.Source},
		{Label: "Format", Value: string(report.Format)},
		{Label: "Entries", Value: entries},
	}
	if report.FilterSource != "" {
		items = append(items, termfmt.TreeItem{Label: "Filter", Value: report.FilterSource})
	}
	if report.Patterns != nil {
		items = append(items, termfmt.TreeItem{Label: "Distinct", Value: formatNumber(report.Patterns.Len())})
	}

	if !report.Start.IsZero() && !report.End.IsZero() {
		items = append(items, termfmt.TreeItem{
			Label: "Time Range",
			Value: fmt.Sprintf("%s to %s", report.Start.Format("2006-01-02 15:04:05"), report.End.Format("2006-01-02 15:04:05")),
			Children: []termfmt.TreeItem{
				{Label: "Duration", Value: report.End.Sub(report.Start).String(), Last: true},
			},
			Last: true,
		})
	} else {
		items = append(items, termfmt.TreeItem{Label: "Time Range", Value: "N/A", Last: true})
	}

	tree := termfmt.TreeViewWithOptions(items, f.opts)
	b.WriteString(tree + "\n\n")
}

// writePatterns prints "count:<tab>line" per record. Extra sample lines of
// the same record are indented under the first.
func (f *terminalFormatter) writePatterns(b *strings.Builder, table *analyzer.Table) {
	for _, record := range table.Records {
		count := fmt.Sprintf("%d:", record.Count)
		if f.opts.Color {
			count = countStyle.Render(count)
		}
		for i, line := range table.Display(record) {
			if i == 0 {
				fmt.Fprintf(b, "%s\t%s\n", count, line)
			} else {
				fmt.Fprintf(b, "\t%s\n", line)
			}
		}
	}
}

// writeGraphStats writes the window summary above the bars
func (f *terminalFormatter) writeGraphStats(b *strings.Builder, series *analyzer.Series, width int) {
	stats := series.Stats(width)
	layout := series.Unit.Layout()

	b.WriteString(emoji.GetEmoji("graph") + " Activity per " + string(series.Unit) + "\n")
	items := []termfmt.TreeItem{
		{Label: "Window", Value: fmt.Sprintf("%s to %s (%s)", stats.Start.Format(layout), stats.End.Format(layout), stats.Duration)},
		{Label: "Entries", Value: formatNumber(stats.Total)},
		{Label: "Range", Value: fmt.Sprintf("min %d, max %d, avg %.1f", stats.Min, stats.Max, stats.Average)},
		{Label: "Scale", Value: fmt.Sprintf("%.2f entries per tick", stats.Scale)},
		{Label: "Trend", Value: stats.Trend, Last: true},
	}
	tree := termfmt.TreeViewWithOptions(items, f.opts)
	b.WriteString(tree + "\n\n")
}

// writeGraph draws one bar row per bucket
func (f *terminalFormatter) writeGraph(b *strings.Builder, series *analyzer.Series, opts analyzer.RenderOptions) {
	for _, row := range analyzer.Render(series, opts) {
		if f.opts.Color {
			if label, bar, ok := strings.Cut(row, " | "); ok {
				row = labelStyle.Render(label) + " | " + barStyle.Render(bar)
			}
		}
		b.WriteString(row + "\n")
	}
}
