package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/glancelog/internal/analyzer"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# glancelog Report\n\n")
	fmt.Fprintf(&b, "Generated: %s  \n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Run: `%s`\n\n", report.RunID)

	f.writeSummaryTable(&b, report)

	if report.Patterns != nil {
		f.writePatternTable(&b, report)
	}
	if report.Series != nil {
		f.writeGraphSection(&b, report)
	}

	b.WriteString("\n---\n")
	b.WriteString("*Report generated by glancelog*\n")

	return []byte(b.String()), nil
}

// writeSummaryTable writes the input summary
func (f *markdownFormatter) writeSummaryTable(b *strings.Builder, report *Report) {
	b.WriteString("## Summary\n\n")

	timeRange := "N/A"
	if !report.Start.IsZero() && !report.End.IsZero() {
		timeRange = fmt.Sprintf("%s to %s (%s)",
			report.Start.Format("2006-01-02 15:04:05"),
			report.End.Format("2006-01-02 15:04:05"),
			report.End.Sub(report.Start))
	}

	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(b, "| Source | %s |\n", escapeMarkdownCell(report.Source))
	fmt.Fprintf(b, "| Format | %s |\n", report.Format)
	fmt.Fprintf(b, "| Mode | %s |\n", report.Mode)
	fmt.Fprintf(b, "| Entries | %s |\n", formatNumber(report.Entries))
	fmt.Fprintf(b, "| Malformed | %s |\n", formatNumber(report.Malformed))
	if report.FilterSource != "" {
		fmt.Fprintf(b, "| Filter | %s |\n", escapeMarkdownCell(report.FilterSource))
	}
	fmt.Fprintf(b, "| Time Range | %s |\n\n", timeRange)
}

// writePatternTable lists every record with the lines it displays as
func (f *markdownFormatter) writePatternTable(b *strings.Builder, report *Report) {
	table := report.Patterns
	fmt.Fprintf(b, "## %s\n\n", modeTitle(report.Mode))
	fmt.Fprintf(b, "%d distinct, sampling: %s (threshold %d)\n\n", table.Len(), table.Sampling, table.Threshold)

	b.WriteString("| Count | Pattern |\n")
	b.WriteString("|------:|---------|\n")
	for _, record := range table.Records {
		lines := table.Display(record)
		cells := make([]string, 0, len(lines))
		for _, line := range lines {
			cells = append(cells, "`"+strings.ReplaceAll(escapeMarkdownCell(line), "`", "'")+"`")
		}
		fmt.Fprintf(b, "| %d | %s |\n", record.Count, strings.Join(cells, "<br>"))
	}
}

// writeGraphSection writes the bar chart and its statistics
func (f *markdownFormatter) writeGraphSection(b *strings.Builder, report *Report) {
	series := report.Series
	stats := series.Stats(report.Graph.Width)

	b.WriteString("## Activity\n\n")
	fmt.Fprintf(b, "**Unit**: %s  \n", series.Unit)
	fmt.Fprintf(b, "**Window**: %s to %s  \n",
		stats.Start.Format(series.Unit.Layout()), stats.End.Format(series.Unit.Layout()))
	fmt.Fprintf(b, "**Entries**: %s (min %d, max %d, avg %.1f per %s)  \n",
		formatNumber(stats.Total), stats.Min, stats.Max, stats.Average, series.Unit)
	fmt.Fprintf(b, "**Trend**: %s\n\n", stats.Trend)

	b.WriteString("```\n")
	for _, row := range analyzer.Render(series, report.Graph) {
		b.WriteString(row + "\n")
	}
	b.WriteString("```\n")
}
