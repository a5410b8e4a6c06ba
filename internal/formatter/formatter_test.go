package formatter

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/yildizm/glancelog/internal/analyzer"
	"github.com/yildizm/glancelog/internal/common"
)

var start = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func testLog() *common.Log {
	entries := []*common.LogEntry{
		{Timestamp: start, Host: "web1", Daemon: "sshd", Message: "Failed password for root", Raw: "raw one"},
		{Timestamp: start.Add(time.Minute), Host: "web1", Daemon: "sshd", Message: "Failed password for root", Raw: "raw two"},
		{Timestamp: start.Add(2 * time.Minute), Host: "web2", Daemon: "cron", Message: "job started", Raw: "raw three"},
		{Message: "garbage", Raw: "garbage", Malformed: true},
	}
	return common.NewLog(common.FormatSyslog, entries)
}

func patternReport() *Report {
	log := testLog()
	report := NewReport("/var/log/messages", "hash", log)
	report.Patterns = analyzer.Build(log.Entries, analyzer.Options{Mode: analyzer.ModeHash, Threshold: 1})
	return report
}

func graphReport() *Report {
	log := testLog()
	from := start
	to := start.Add(3 * time.Minute)
	report := NewReport("", "graph", log)
	report.Series, _ = analyzer.BuildSeries(log.Entries, analyzer.UnitMinute, &from, &to)
	report.Graph = analyzer.RenderOptions{Width: 10}
	return report
}

func TestNewReport(t *testing.T) {
	report := patternReport()

	if report.RunID == "" {
		t.Error("want a run id")
	}
	if report.Entries != 4 {
		t.Errorf("want 4 entries, got %d", report.Entries)
	}
	if report.Malformed != 1 {
		t.Errorf("want 1 malformed entry, got %d", report.Malformed)
	}
	if !report.Start.Equal(start) || !report.End.Equal(start.Add(2*time.Minute)) {
		t.Errorf("unexpected span %v - %v", report.Start, report.End)
	}

	if NewReport("", "hash", nil).Source != "<stdin>" {
		t.Error("empty source should read as stdin")
	}
}

func TestTerminalPatterns(t *testing.T) {
	out, err := NewTerminal(Options{}).Format(patternReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %d: %q", len(lines), out)
	}
	// above the threshold the key is shown, rare patterns show their sample
	if lines[0] != "2:\tFailed password for root" {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if lines[1] != "1:\traw three" {
		t.Errorf("unexpected second line %q", lines[1])
	}
	if strings.Contains(string(out), "Statistics") {
		t.Error("summary should be off by default")
	}
}

func TestTerminalSummary(t *testing.T) {
	out, err := NewTerminal(Options{Summary: true}).Format(patternReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	for _, want := range []string{"glancelog Patterns", "Statistics", "/var/log/messages", "1 malformed"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestTerminalGraph(t *testing.T) {
	out, err := NewTerminal(Options{}).Format(graphReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("want one row per bucket, got %d", len(lines))
	}
	if lines[0] != "2024-03-01 10:00 | ########## 1" {
		t.Errorf("unexpected row %q", lines[0])
	}
}

func TestJSON(t *testing.T) {
	out, err := NewJSON().Format(patternReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded Output
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Summary.Entries != 4 || decoded.Summary.Mode != "hash" {
		t.Errorf("unexpected summary %+v", decoded.Summary)
	}
	if len(decoded.Patterns) != 3 || decoded.Patterns[0].Count != 2 {
		t.Errorf("unexpected patterns %+v", decoded.Patterns)
	}
	if decoded.Graph != nil {
		t.Error("pattern report should have no graph")
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	report := graphReport()
	out, err := NewMsgpack().Format(report)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded Output
	if err := msgpack.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("msgpack.Unmarshal() error = %v", err)
	}
	if decoded.RunID != report.RunID {
		t.Errorf("run id lost: %s", decoded.RunID)
	}
	if decoded.Graph == nil || len(decoded.Graph.Buckets) != 3 {
		t.Fatalf("want 3 buckets, got %+v", decoded.Graph)
	}
	if decoded.Graph.Total != 3 {
		t.Errorf("want total 3, got %d", decoded.Graph.Total)
	}
}

func TestCSV(t *testing.T) {
	out, err := NewCSV().Format(graphReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("want header and 3 rows, got %d", len(records))
	}
	if records[1][0] != "2024-03-01 10:00:00" || records[1][2] != "1" {
		t.Errorf("unexpected row %v", records[1])
	}

	out, err = NewCSV().Format(patternReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.HasPrefix(string(out), "Count,Pattern,First Seen,Last Seen,Sample\n2,Failed password for root,") {
		t.Errorf("unexpected CSV %q", out)
	}
}

func TestMarkdown(t *testing.T) {
	out, err := NewMarkdown().Format(graphReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	for _, want := range []string{"# glancelog Report", "## Summary", "## Activity", "| Source | <stdin> |", "```"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestNew(t *testing.T) {
	for _, name := range Names {
		if _, err := New(name, Options{}); err != nil {
			t.Errorf("New(%s) error = %v", name, err)
		}
	}
	if _, err := New("yaml", Options{}); err == nil {
		t.Error("want error for unsupported format")
	}
	if !Binary("msgpack") || Binary("json") {
		t.Error("only msgpack is binary")
	}
}
