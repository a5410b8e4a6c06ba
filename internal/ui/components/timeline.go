package components

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/glancelog/internal/analyzer"
)

var (
	chartTitleColor = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"}
	chartMutedColor = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	chartBarColor   = lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"}
	chartPeakColor  = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"}
)

// TimelineChart draws a bucket series as vertical bars
type TimelineChart struct {
	Title    string
	Series   *analyzer.Series
	Width    int
	Height   int
	ShowAxis bool
}

// NewTimelineChart creates a new timeline chart
func NewTimelineChart(title string, series *analyzer.Series, width, height int) *TimelineChart {
	return &TimelineChart{
		Title:    title,
		Series:   series,
		Width:    width,
		Height:   height,
		ShowAxis: true,
	}
}

// Render renders the timeline chart
func (t *TimelineChart) Render() string {
	if t.Series == nil || len(t.Series.Buckets) == 0 {
		return t.renderEmpty()
	}

	content := []string{
		lipgloss.NewStyle().Foreground(chartTitleColor).Bold(true).Render(t.Title),
		"",
		t.renderChart(),
	}

	if t.ShowAxis {
		content = append(content, t.renderTimeAxis())
	}

	content = append(content, "", t.renderSummary())

	joined := lipgloss.JoinVertical(lipgloss.Left, content...)
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(chartMutedColor).Padding(1).Width(t.Width).Render(joined)
}

// renderEmpty renders an empty timeline
func (t *TimelineChart) renderEmpty() string {
	content := []string{
		lipgloss.NewStyle().Foreground(chartTitleColor).Bold(true).Render(t.Title),
		"",
		lipgloss.NewStyle().Foreground(chartMutedColor).Render("No timestamped entries"),
	}

	joined := lipgloss.JoinVertical(lipgloss.Left, content...)
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(chartMutedColor).Padding(1).Width(t.Width).Render(joined)
}

// chartWidth is the number of bar columns, one per bucket
func (t *TimelineChart) chartWidth() int {
	return max(1, t.Width-10)
}

// renderChart renders the bar area from the top row down. The tallest
// bucket is drawn in the peak color.
func (t *TimelineChart) renderChart() string {
	chartHeight := max(3, t.Height-8)
	series := t.Series

	if series.Max == 0 {
		return lipgloss.NewStyle().Foreground(chartMutedColor).Render("No data to display")
	}

	mutedStyle := lipgloss.NewStyle().Foreground(chartMutedColor)
	barStyle := lipgloss.NewStyle().Foreground(chartBarColor)
	peakStyle := lipgloss.NewStyle().Foreground(chartPeakColor)

	lines := make([]string, 0, chartHeight)
	for row := chartHeight - 1; row >= 0; row-- {
		var line strings.Builder

		value := int(float64(series.Max) * float64(row) / float64(chartHeight-1))
		line.WriteString(mutedStyle.Render(fmt.Sprintf("%4d │", value)))

		for i, bucket := range series.Buckets {
			if i >= t.chartWidth() {
				break
			}
			height := int(math.Ceil(float64(bucket.Count) * float64(chartHeight-1) / float64(series.Max)))
			switch {
			case bucket.Count == 0 || row > height:
				line.WriteString(" ")
			case bucket.Count == series.Max:
				line.WriteString(peakStyle.Render("█"))
			default:
				line.WriteString(barStyle.Render("█"))
			}
		}

		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n")
}

// renderTimeAxis renders the axis line and up to five bucket labels
func (t *TimelineChart) renderTimeAxis() string {
	mutedStyle := lipgloss.NewStyle().Foreground(chartMutedColor)
	buckets := t.Series.Buckets
	width := min(t.chartWidth(), len(buckets))

	axis := "     └" + strings.Repeat("─", width)

	layout := axisLayout(t.Series.Unit)
	labels := []rune(strings.Repeat(" ", width+6))
	step := max(1, len(buckets)/5)
	next := 0
	for i := 0; i < width; i += step {
		label := []rune(buckets[i].Start.Format(layout))
		pos := 6 + i
		if pos+len(label) > len(labels) {
			break
		}
		if pos < next {
			continue
		}
		copy(labels[pos:], label)
		next = pos + len(label) + 1
	}

	return mutedStyle.Render(axis) + "\n" + mutedStyle.Render(strings.TrimRight(string(labels), " "))
}

// axisLayout shortens the unit's label layout for the axis
func axisLayout(unit analyzer.Unit) string {
	switch unit {
	case analyzer.UnitSecond:
		return "15:04:05"
	case analyzer.UnitMinute, analyzer.UnitHour:
		return "15:04"
	case analyzer.UnitDay:
		return "01-02"
	case analyzer.UnitMonth:
		return "2006-01"
	default:
		return "2006"
	}
}

// renderSummary renders series summary information
func (t *TimelineChart) renderSummary() string {
	stats := t.Series.Stats(t.chartWidth())

	summary := []string{
		fmt.Sprintf("Duration: %s", formatDuration(stats.Duration)),
		fmt.Sprintf("Buckets: %d (1 %s each)", len(t.Series.Buckets), t.Series.Unit),
		fmt.Sprintf("Total: %d entries", stats.Total),
		fmt.Sprintf("Trend: %s", stats.Trend),
	}

	return lipgloss.NewStyle().Foreground(chartMutedColor).Render(strings.Join(summary, " | "))
}

// SparklineChart represents a compact sparkline chart
type SparklineChart struct {
	Values []float64
	Width  int
	Min    float64
	Max    float64
}

// NewSparklineChart creates a new sparkline chart
func NewSparklineChart(values []float64, width int) *SparklineChart {
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)

	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	return &SparklineChart{
		Values: values,
		Width:  width,
		Min:    minVal,
		Max:    maxVal,
	}
}

// NewSeriesSparkline creates a sparkline over bucket counts
func NewSeriesSparkline(series *analyzer.Series, width int) *SparklineChart {
	values := make([]float64, 0, len(series.Buckets))
	for _, bucket := range series.Buckets {
		values = append(values, float64(bucket.Count))
	}
	return NewSparklineChart(values, width)
}

// Render renders the sparkline chart
func (s *SparklineChart) Render() string {
	if len(s.Values) == 0 || s.Width <= 0 {
		return ""
	}

	// Sparkline characters (from lowest to highest)
	chars := []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

	var result strings.Builder

	step := len(s.Values) / s.Width
	if step == 0 {
		step = 1
	}

	for i := 0; i < s.Width && i*step < len(s.Values); i++ {
		value := s.Values[i*step]

		// Normalize value to 0-1 range
		normalized := 0.0
		if s.Max > s.Min {
			normalized = (value - s.Min) / (s.Max - s.Min)
		}

		charIndex := int(normalized * float64(len(chars)-1))
		if charIndex >= len(chars) {
			charIndex = len(chars) - 1
		}

		result.WriteString(chars[charIndex])
	}

	return result.String()
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	case d < 24*time.Hour:
		return fmt.Sprintf("%.1fh", d.Hours())
	default:
		return fmt.Sprintf("%.1fd", d.Hours()/24)
	}
}
