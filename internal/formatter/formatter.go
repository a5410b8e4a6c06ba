package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yildizm/glancelog/internal/analyzer"
	"github.com/yildizm/glancelog/internal/common"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(report *Report) ([]byte, error)
}

// Report is everything one run produced. Exactly one of Patterns and Series
// is set.
type Report struct {
	RunID        string
	GeneratedAt  time.Time
	Source       string
	Format       common.Format
	Mode         string
	Entries      int
	Malformed    int
	Start        time.Time
	End          time.Time
	FilterSource string

	Patterns *analyzer.Table
	Series   *analyzer.Series
	Graph    analyzer.RenderOptions
}

// NewReport summarizes a parsed log. An empty source means stdin.
func NewReport(source, mode string, log *common.Log) *Report {
	if source == "" {
		source = "<stdin>"
	}
	report := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
		Source:      source,
		Mode:        mode,
	}
	if log == nil {
		return report
	}

	report.Format = log.Format
	report.Entries = log.Len()
	for _, entry := range log.Entries {
		if entry.Malformed {
			report.Malformed++
		}
	}
	report.Start, report.End = log.Span()

	return report
}

// Options selects and configures a formatter
type Options struct {
	Color   bool
	Emoji   bool
	Summary bool
}

// Names lists the supported output formats
var Names = []string{"text", "json", "markdown", "csv", "msgpack"}

// New returns the formatter for an output format name
func New(name string, opts Options) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "text", "terminal":
		return NewTerminal(opts), nil
	case "json":
		return NewJSON(), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	case "csv":
		return NewCSV(), nil
	case "msgpack":
		return NewMsgpack(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", name)
	}
}

// Binary reports whether a format writes non-text output
func Binary(name string) bool {
	return strings.ToLower(name) == "msgpack"
}
