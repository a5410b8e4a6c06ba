package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/glancelog/internal/analyzer"
	"github.com/yildizm/glancelog/internal/common"
)

// buildCompleteMsg carries the finished pattern table and bucket series
type buildCompleteMsg struct {
	table  *analyzer.Table
	series *analyzer.Series
}

type tickMsg time.Time

// tick drives the spinner while the table is built
func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// CreateBuildCommand builds the pattern table and an hourly series off the
// UI goroutine
func CreateBuildCommand(entries []*common.LogEntry, opts analyzer.Options) tea.Cmd {
	return func() tea.Msg {
		// without bounds the series is the default span and cannot fail
		series, _ := analyzer.BuildSeries(entries, analyzer.UnitHour, nil, nil)
		return buildCompleteMsg{
			table:  analyzer.Build(entries, opts),
			series: series,
		}
	}
}
