package components

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	detailHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#60A5FA"}).Bold(true)
	detailBodyStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"})
	detailPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"}).Padding(1, 2)

	detailSectionStyles = map[string]lipgloss.Style{
		"success": lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"}),
		"warning": lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}),
		"error":   lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}),
		"info":    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#06B6D4"}),
	}
	detailSubheaderStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"})
)

// DetailViewer represents a detailed view of a specific item
type DetailViewer struct {
	Title   string
	Content []DetailSection
	Width   int
	Height  int
}

// DetailSection represents a section in the detail view
type DetailSection struct {
	Title   string
	Content []string
	Style   string // "info", "warning", "error", "success"
}

// NewDetailViewer creates a new detail viewer
func NewDetailViewer(title string, width, height int) *DetailViewer {
	return &DetailViewer{
		Title:  title,
		Width:  width,
		Height: height,
	}
}

// AddSection adds a section to the detail view
func (d *DetailViewer) AddSection(section DetailSection) {
	d.Content = append(d.Content, section)
}

// Clear clears all content
func (d *DetailViewer) Clear() {
	d.Content = d.Content[:0]
}

// Render renders the detail viewer
func (d *DetailViewer) Render() string {
	content := make([]string, 0, len(d.Content)+5)

	content = append(content, detailHeaderStyle.Render(d.Title), "")

	for _, section := range d.Content {
		content = append(content, d.renderSection(section)...)
		content = append(content, "")
	}

	joined := lipgloss.JoinVertical(lipgloss.Left, content...)
	return detailPanelStyle.Width(d.Width).Render(joined)
}

// renderSection renders a detail section
func (d *DetailViewer) renderSection(section DetailSection) []string {
	lines := make([]string, 0, len(section.Content)+1)

	titleStyle, ok := detailSectionStyles[section.Style]
	if !ok {
		titleStyle = detailSubheaderStyle
	}

	lines = append(lines, titleStyle.Bold(true).Render(section.Title))

	for _, line := range section.Content {
		lines = append(lines, detailBodyStyle.Render("  "+line))
	}

	return lines
}
