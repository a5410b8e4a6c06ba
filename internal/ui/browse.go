package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/glancelog/internal/analyzer"
	"github.com/yildizm/glancelog/internal/common"
	"github.com/yildizm/glancelog/internal/emoji"
	"github.com/yildizm/glancelog/internal/ui/components"
)

// ViewState represents the screens of the browser
type ViewState int

const (
	ViewBuilding ViewState = iota
	ViewPatterns
	ViewDetail
	ViewActivity
	ViewHelp
)

// BrowseModel is a navigable view over a pattern table
type BrowseModel struct {
	width    int
	height   int
	source   string
	entries  []*common.LogEntry
	opts     analyzer.Options
	overview components.Overview

	table  *analyzer.Table
	series *analyzer.Series
	list   *components.List

	ready     bool
	quitting  bool
	state     ViewState
	searching bool
	query     string
	selected  *analyzer.PatternRecord

	spinner *components.Spinner
	styles  *Styles
}

// NewBrowseModel creates a browser over a parsed log
func NewBrowseModel(source string, log *common.Log, opts analyzer.Options) *BrowseModel {
	m := &BrowseModel{
		source:  source,
		opts:    opts,
		state:   ViewBuilding,
		spinner: components.NewSpinner(),
		styles:  GetStyles(),
	}
	if log != nil {
		m.entries = log.Entries
		m.overview.Entries = log.Len()
		for _, entry := range log.Entries {
			if entry.Malformed {
				m.overview.Malformed++
			}
		}
		m.overview.Start, m.overview.End = log.Span()
	}
	m.spinner.SetLabel(emoji.GetEmoji("pattern") + " Grouping entries...")
	return m
}

// Init starts building the table
func (m *BrowseModel) Init() tea.Cmd {
	return tea.Batch(
		CreateBuildCommand(m.entries, m.opts),
		tick(),
	)
}

// Update handles messages and navigation
func (m *BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tickMsg:
		return m.handleTick()
	case buildCompleteMsg:
		return m.handleBuildComplete(msg)
	}
	return m, nil
}

// State reports the current screen
func (m *BrowseModel) State() ViewState {
	return m.state
}

// Selected returns the record shown in the detail view
func (m *BrowseModel) Selected() *analyzer.PatternRecord {
	return m.selected
}

// View renders the current screen
func (m *BrowseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.quitting {
		return "Bye " + emoji.GetEmoji("door") + "\n"
	}

	switch m.state {
	case ViewBuilding:
		return m.center(m.spinner.Render())
	case ViewDetail:
		return m.renderDetailView()
	case ViewActivity:
		return m.renderActivityView()
	case ViewHelp:
		return m.renderHelpView()
	default:
		return m.renderPatternsView()
	}
}

func (m *BrowseModel) center(content string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// listSize leaves room for the header, the dashboard and the key hints
func (m *BrowseModel) listSize() (int, int) {
	return max(20, min(m.width-4, 120)), max(6, m.height-14)
}

func (m *BrowseModel) renderHeader() string {
	title := m.styles.Title.Render(fmt.Sprintf("%s glancelog %s", emoji.ForMode(string(m.opts.Mode)), m.opts.Mode))
	source := m.styles.Muted.Render(m.source)
	header := title + "  " + source
	if m.series != nil && len(m.series.Buckets) > 0 {
		header += "  " + m.styles.Count.Render(components.NewSeriesSparkline(m.series, 24).Render())
	}
	return header
}

func (m *BrowseModel) renderPatternsView() string {
	dashboard := components.NewTableStats(m.table, m.overview, emoji.GetEmoji)
	dashboard.SetCardSize(max(16, min(m.width-4, 120)/4-2), 3)

	hints := "↑↓ Navigate • Enter Samples • / Search • a Activity • ? Help • q Quit"
	if m.searching {
		hints = "Type to search • Enter Done • Esc Clear"
	}
	search := ""
	if m.searching || m.query != "" {
		search = m.styles.Warning.Render("/" + m.query)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		dashboard.Render(),
		search,
		m.list.Render(),
		m.styles.Muted.Render(hints),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Top, content)
}

func (m *BrowseModel) renderDetailView() string {
	record := m.selected
	width, _ := m.listSize()
	viewer := components.NewDetailViewer(emoji.GetEmoji("pattern")+" Pattern", width, m.height-4)

	viewer.AddSection(components.DetailSection{
		Title:   "Key",
		Content: wrap(record.Key, width-8),
		Style:   "info",
	})

	occurrences := []string{fmt.Sprintf("Count: %d of %d", record.Count, m.table.Total)}
	if !record.FirstSeen.IsZero() {
		occurrences = append(occurrences,
			"First: "+record.FirstSeen.Format("2006-01-02 15:04:05"),
			"Last:  "+record.LastSeen.Format("2006-01-02 15:04:05"))
	}
	viewer.AddSection(components.DetailSection{Title: "Occurrences", Content: occurrences, Style: "success"})

	samples := m.table.Display(record)
	if len(samples) > 0 {
		viewer.AddSection(components.DetailSection{
			Title:   fmt.Sprintf("Samples (%s)", m.table.Sampling),
			Content: samples,
			Style:   "warning",
		})
	}

	return m.center(lipgloss.JoinVertical(lipgloss.Left,
		viewer.Render(),
		m.styles.Muted.Render("Esc Back • q Quit")))
}

func (m *BrowseModel) renderActivityView() string {
	width, _ := m.listSize()
	chart := components.NewTimelineChart(emoji.GetEmoji("graph")+" Entries per hour", m.series, width, max(12, m.height-6))
	return m.center(lipgloss.JoinVertical(lipgloss.Left,
		chart.Render(),
		m.styles.Muted.Render("Esc Back • q Quit")))
}

func (m *BrowseModel) renderHelpView() string {
	lines := []string{
		m.styles.Title.Render(emoji.GetEmoji("help") + " Keys"),
		"",
		"  ↑↓ or j/k   Move through patterns",
		"  Enter       Show samples of the selected pattern",
		"  /           Search pattern text",
		"  a           Activity chart",
		"  Esc         Back to the pattern list",
		"  q           Quit",
	}
	return m.center(m.styles.Box.Render(strings.Join(lines, "\n")))
}

// wrap splits long text into lines of at most width runes
func wrap(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	var lines []string
	for len(runes) > width {
		lines = append(lines, string(runes[:width]))
		runes = runes[width:]
	}
	return append(lines, string(runes))
}

// handleWindowResize handles window resize events
func (m *BrowseModel) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	if m.list != nil {
		m.list.Width, m.list.Height = m.listSize()
	}
	return m, nil
}

// handleKeyPress handles keyboard input
func (m *BrowseModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.handleQuit()
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "q":
		return m.handleQuit()
	case "esc":
		return m.handleEscape()
	}

	if m.state == ViewBuilding {
		return m, nil
	}

	switch msg.String() {
	case "h", "?":
		m.state = ViewHelp
	case "a":
		m.state = ViewActivity
	case "/":
		if m.state == ViewPatterns {
			m.searching = true
		}
	case "up", "k":
		if m.state == ViewPatterns {
			m.list.MoveUp()
		}
	case "down", "j":
		if m.state == ViewPatterns {
			m.list.MoveDown()
		}
	case "enter", " ":
		return m.handleSelection()
	}
	return m, nil
}

// handleSearchKey edits the search query
func (m *BrowseModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.query = ""
	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.query += " "
	case tea.KeyRunes:
		m.query += string(msg.Runes)
	default:
		return m, nil
	}
	m.list.SetSearch(m.query)
	return m, nil
}

// handleSelection opens the selected record
func (m *BrowseModel) handleSelection() (tea.Model, tea.Cmd) {
	if m.state != ViewPatterns {
		return m, nil
	}
	item := m.list.GetSelectedItem()
	if item == nil {
		return m, nil
	}
	if record, ok := item.Data.(*analyzer.PatternRecord); ok {
		m.selected = record
		m.state = ViewDetail
	}
	return m, nil
}

// handleQuit handles quit commands
func (m *BrowseModel) handleQuit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

// handleEscape returns to the pattern list
func (m *BrowseModel) handleEscape() (tea.Model, tea.Cmd) {
	if m.state != ViewBuilding {
		m.state = ViewPatterns
	}
	return m, nil
}

// handleTick advances the spinner until the table is ready
func (m *BrowseModel) handleTick() (tea.Model, tea.Cmd) {
	if m.state != ViewBuilding {
		return m, nil
	}
	m.spinner.Tick()
	return m, tick()
}

// handleBuildComplete switches to the pattern list
func (m *BrowseModel) handleBuildComplete(msg buildCompleteMsg) (tea.Model, tea.Cmd) {
	m.table = msg.table
	m.series = msg.series
	width, height := m.listSize()
	m.list = components.NewPatternList(m.table, width, height)
	m.list.SetFocused(true)
	m.state = ViewPatterns
	return m, nil
}

// Run shows the browser until the user quits
func Run(source string, log *common.Log, opts analyzer.Options) error {
	model := NewBrowseModel(source, log, opts)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
