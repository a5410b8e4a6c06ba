package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hpcloud/tail"

	"github.com/yildizm/glancelog/internal/analyzer"
	"github.com/yildizm/glancelog/internal/common"
	"github.com/yildizm/glancelog/internal/filter"
	"github.com/yildizm/glancelog/internal/formatter"
	"github.com/yildizm/glancelog/internal/parser"
)

// runCLI executes the root command with an isolated home directory and an
// empty configuration file
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLIStreams(t, stdin, args...)
	return out, err
}

// runCLIStreams is runCLI that also returns what was logged to stderr
func runCLIStreams(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NO_COLOR", "1")
	t.Setenv(filter.EnvFilterDir, "")

	cfg := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(cfg, []byte("version: \"1.0\"\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cmd := NewRootCommand("test", "abc123", "today")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfg, "--no-color", "--no-emoji"}, args...))

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("failed to write log: %v", err)
	}
	return path
}

func jobLines() []string {
	var lines []string
	for i := 1; i <= 5; i++ {
		lines = append(lines, fmt.Sprintf("2024-03-01T10:0%d:00.000000+00:00 web1 cron: job %d done", i, i*17))
	}
	return append(lines, "2024-03-01T10:30:00.000000+00:00 web2 kernel: disk full")
}

func TestHashCommandCollapsesNumbers(t *testing.T) {
	path := writeLog(t, jobLines()...)

	out, err := runCLI(t, "", "hash", path)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if !strings.Contains(out, "5:\tjob # done") {
		t.Errorf("Expected collapsed job pattern, got:\n%s", out)
	}
	// a rare pattern shows its original line
	if !strings.Contains(out, "1:\t2024-03-01T10:30:00.000000+00:00 web2 kernel: disk full") {
		t.Errorf("Expected sample line for rare pattern, got:\n%s", out)
	}
	if strings.Index(out, "job # done") > strings.Index(out, "disk full") {
		t.Errorf("Expected most frequent pattern first, got:\n%s", out)
	}
}

func TestRootCommandDefaultsToHash(t *testing.T) {
	out, err := runCLI(t, strings.Join(jobLines(), "\n"), "--nosample")
	if err != nil {
		t.Fatalf("root command failed: %v", err)
	}
	if !strings.Contains(out, "5:\tjob # done") || !strings.Contains(out, "1:\tdisk full") {
		t.Errorf("Expected keys only with --nosample, got:\n%s", out)
	}
}

func TestSampleFlagsAreExclusive(t *testing.T) {
	path := writeLog(t, jobLines()...)
	if _, err := runCLI(t, "", "hash", "--nosample", "--allsample", path); err == nil {
		t.Error("Expected an error for --nosample with --allsample")
	}
}

func TestLowcountMustBePositive(t *testing.T) {
	path := writeLog(t, jobLines()...)
	_, err := runCLI(t, "", "hash", "-l", "0", path)
	if err == nil || !strings.Contains(err.Error(), "--lowcount") {
		t.Errorf("Expected lowcount error, got %v", err)
	}
}

func TestEmptyInputIsAnError(t *testing.T) {
	_, err := runCLI(t, "\n\n", "hash")
	if !errors.Is(err, common.ErrUnrecognizedFormat) {
		t.Errorf("Expected ErrUnrecognizedFormat, got %v", err)
	}
}

func TestUnreadableInputIsIOError(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, "", "hash", filepath.Join(dir, "missing.log"))
	var ioErr *common.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Expected an IOError for a missing file, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("IOError should wrap the stat failure, got %v", err)
	}

	_, err = runCLI(t, "", "hash", dir)
	if !errors.As(err, &ioErr) {
		t.Errorf("Expected an IOError for a directory, got %v", err)
	}
}

func TestCorruptEventLogIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.evtx")
	data := append([]byte("ElfFile\x00"), bytes.Repeat([]byte{0x01}, 16)...)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := runCLI(t, "", "hash", path)
	var corrupt *common.CorruptBinaryError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Expected a CorruptBinaryError, got %v", err)
	}
	if corrupt.Path != path {
		t.Errorf("Expected path %s, got %s", path, corrupt.Path)
	}
}

func TestVerboseLogsParseFields(t *testing.T) {
	path := writeLog(t, jobLines()...)

	_, stderr, err := runCLIStreams(t, "", "--verbose", "hash", path)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	for _, want := range []string{"Parsed input", `"count": 6`, `"format"`, `"duration"`} {
		if !strings.Contains(stderr, want) {
			t.Errorf("Expected %q in verbose log:\n%s", want, stderr)
		}
	}

	_, stderr, err = runCLIStreams(t, "", "hash", path)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if strings.Contains(stderr, "Parsed input") {
		t.Errorf("Debug output without --verbose:\n%s", stderr)
	}
}

func TestDaemonCommandCountsPrograms(t *testing.T) {
	path := writeLog(t, jobLines()...)

	out, err := runCLI(t, "", "daemon", "--nosample", path)
	if err != nil {
		t.Fatalf("daemon failed: %v", err)
	}
	if !strings.Contains(out, "5:\tcron") {
		t.Errorf("Expected cron count, got:\n%s", out)
	}
}

func TestGraphDrawsOneRowPerBucket(t *testing.T) {
	path := writeLog(t, jobLines()...)

	out, err := runCLI(t, "", "hgraph", "--from", "2024-03-01", path)
	if err != nil {
		t.Fatalf("hgraph failed: %v", err)
	}

	rows := 0
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.Contains(line, " | ") {
			rows++
		}
	}
	if rows != 24 {
		t.Errorf("Expected 24 hourly rows, got %d:\n%s", rows, out)
	}
}

func TestGraphRejectsBadOptions(t *testing.T) {
	path := writeLog(t, jobLines()...)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown unit", []string{"graph", "--unit", "fortnight", path}},
		{"zero width", []string{"graph", "--width", "0", path}},
		{"from after to", []string{"graph", "--from", "2024-03-02", "--to", "2024-03-01", path}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, "", tt.args...); err == nil {
				t.Errorf("Expected an error for %v", tt.args)
			}
		})
	}
}

func TestGraphRejectsTooManyBuckets(t *testing.T) {
	path := writeLog(t, jobLines()...)

	_, err := runCLI(t, "", "graph", "--unit", "second", "--from", "2014-01-01", "--to", "2024-12-31", path)
	if !errors.Is(err, analyzer.ErrTooManyBuckets) {
		t.Fatalf("Expected ErrTooManyBuckets, got %v", err)
	}

	out, err := runCLI(t, "", "graph", "--unit", "month", "--from", "2014-01-01", "--to", "2024-12-31", path)
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	if strings.Count(out, " | ") < 100 {
		t.Errorf("Expected a row per monthly bucket, got:\n%s", out)
	}
}

func TestPrintCommand(t *testing.T) {
	path := writeLog(t, jobLines()...)

	out, err := runCLI(t, "", "print", path)
	if err != nil {
		t.Fatalf("print failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 {
		t.Fatalf("Expected 6 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "2024-03-01T10:01:00 web1 cron") || !strings.HasSuffix(lines[0], ": job 17 done") {
		t.Errorf("Unexpected first line %q", lines[0])
	}
}

func TestPrintWritesOutputFile(t *testing.T) {
	path := writeLog(t, jobLines()...)
	target := filepath.Join(t.TempDir(), "out.txt")

	out, err := runCLI(t, "", "print", "--output-file", target, path)
	if err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if out != "" {
		t.Errorf("Expected nothing on stdout, got %q", out)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.Contains(string(data), "disk full") {
		t.Errorf("Expected entries in output file, got %q", data)
	}
}

func TestFollowNeedsFile(t *testing.T) {
	if _, err := runCLI(t, "line\n", "print", "--follow"); err == nil {
		t.Error("Expected an error when following stdin")
	}
}

func TestFormatsCommand(t *testing.T) {
	out, err := runCLI(t, "", "formats")
	if err != nil {
		t.Fatalf("formats failed: %v", err)
	}
	for _, format := range parser.Formats() {
		if !strings.Contains(out, string(format)) {
			t.Errorf("Expected %s in listing", format)
		}
		if formatDescriptions[format] == "" {
			t.Errorf("Missing description for %s", format)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "glancelog test (abc123)") {
		t.Errorf("Unexpected version output %q", out)
	}
}

func TestFiltersExportAndValidate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "filters")

	out, err := runCLI(t, "", "filters", "export", dir)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	for _, name := range filter.EmbeddedNames() {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to be exported: %v", name, err)
		}
		if !strings.Contains(out, name) {
			t.Errorf("Expected %s in export output", name)
		}
	}

	if _, err := runCLI(t, "", "filters", "validate", filepath.Join(dir, "hash.stopwords")); err != nil {
		t.Errorf("Expected exported filter to validate: %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.stopwords")
	if err := os.WriteFile(bad, []byte("\\d+\n(unclosed\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err = runCLI(t, "", "filters", "validate", bad)
	if err == nil {
		t.Error("Expected validation to fail")
	}
	if !strings.Contains(out, "1 invalid") {
		t.Errorf("Expected the invalid rule to be reported, got:\n%s", out)
	}
}

func TestFilterDirOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	// only collapse the word "job", leaving numbers intact
	if err := os.WriteFile(filepath.Join(dir, "hash.stopwords"), []byte("job\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	path := writeLog(t, jobLines()...)

	out, err := runCLI(t, "", "hash", "--nosample", "--filter-dir", dir, path)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !strings.Contains(out, "1:\t# 17 done") {
		t.Errorf("Expected the custom filter to be used, got:\n%s", out)
	}
}

func TestInvalidFilterRuleIsWarned(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hash.stopwords"), []byte("job\n(unclosed\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	path := writeLog(t, jobLines()...)

	_, stderr, err := runCLIStreams(t, "", "hash", "--filter-dir", dir, path)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	for _, want := range []string{"WARN", "Skipping filter rule", `"source"`, `"error"`, "(unclosed"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("Expected %q in warning:\n%s", want, stderr)
		}
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "glancelog.yaml")

	if _, err := runCLI(t, "", "config", "init", "--minimal", "--path", target); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("Expected config file: %v", err)
	}

	if _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Error("Expected init to refuse overwriting without --force")
	}
	if _, err := runCLI(t, "", "config", "init", "--force", "--path", target); err != nil {
		t.Errorf("Expected --force to overwrite: %v", err)
	}
}

func TestParseTimeFlag(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)},
		{"2024-03-01 10:30", time.Date(2024, 3, 1, 10, 30, 0, 0, time.Local)},
		{" 2024-03-01 10:30:15 ", time.Date(2024, 3, 1, 10, 30, 15, 0, time.Local)},
	}
	for _, tt := range tests {
		got, err := parseTimeFlag(tt.in)
		if err != nil {
			t.Errorf("parseTimeFlag(%q) error: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseTimeFlag(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, in := range []string{"", "yesterday", "01/03/2024"} {
		if _, err := parseTimeFlag(in); err == nil {
			t.Errorf("parseTimeFlag(%q) expected error", in)
		}
	}
}

func TestForcedFormat(t *testing.T) {
	defer func(saved string) { inputFormat = saved }(inputFormat)

	tests := []struct {
		in      string
		want    common.Format
		wantErr bool
	}{
		{"", "", false},
		{"auto", "", false},
		{"AUTO", "", false},
		{"syslog", common.FormatSyslog, false},
		{"nonsense", "", true},
	}
	for _, tt := range tests {
		inputFormat = tt.in
		got, err := forcedFormat()
		if (err != nil) != tt.wantErr {
			t.Errorf("forcedFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("forcedFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPrintLine(t *testing.T) {
	entry := &common.LogEntry{
		Timestamp: time.Date(2024, 3, 1, 10, 0, 5, 0, time.UTC),
		Host:      "web1",
		Daemon:    "sshd",
		Message:   "session opened",
	}

	got := formatPrintLine(entry, "2006-01-02T15:04:05")
	want := "2024-03-01T10:00:05 web1 sshd: session opened"
	if got != want {
		t.Errorf("formatPrintLine() = %q, want %q", got, want)
	}
}

func TestPrintTailLines(t *testing.T) {
	dialect, err := parser.NewFactory(nil).Create(common.FormatRaw)
	if err != nil {
		t.Fatalf("failed to create dialect: %v", err)
	}

	lines := make(chan *tail.Line, 4)
	lines <- &tail.Line{Text: "first\r"}
	lines <- &tail.Line{Text: "   "}
	lines <- &tail.Line{Err: errors.New("truncated")}
	lines <- &tail.Line{Text: "second"}
	close(lines)

	var out bytes.Buffer
	if err := printTailLines(context.Background(), &out, lines, dialect, "15:04"); err != nil {
		t.Fatalf("printTailLines() error: %v", err)
	}

	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(got) != 2 {
		t.Fatalf("Expected 2 printed lines, got %d: %q", len(got), out.String())
	}
	if !strings.HasSuffix(got[0], ": first") || !strings.HasSuffix(got[1], ": second") {
		t.Errorf("Unexpected lines %q", got)
	}
}

func TestPrintTailLinesStopsOnCancel(t *testing.T) {
	dialect, err := parser.NewFactory(nil).Create(common.FormatRaw)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := printTailLines(ctx, &bytes.Buffer{}, make(chan *tail.Line), dialect, "15:04"); err != nil {
		t.Errorf("Expected nil on cancel, got %v", err)
	}
}

func TestReadHead(t *testing.T) {
	path := writeLog(t, "", "one\r", "two", "", "three")

	lines, binary, err := readHead(path, 2)
	if err != nil {
		t.Fatalf("readHead() error: %v", err)
	}
	if binary {
		t.Error("Expected a text file")
	}
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("readHead() = %q", lines)
	}

	evtx := filepath.Join(t.TempDir(), "System.evtx")
	if err := os.WriteFile(evtx, append([]byte("ElfFile\x00"), make([]byte, 64)...), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, binary, err := readHead(evtx, 2); err != nil || !binary {
		t.Errorf("readHead(evtx) binary = %v, err = %v", binary, err)
	}
}

func TestHandleWatchEvent(t *testing.T) {
	filename := filepath.Join("/var", "log", "app.log")

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: filename, Op: fsnotify.Write}, true},
		{"create after rotation", fsnotify.Event{Name: filename, Op: fsnotify.Create}, true},
		{"unclean name", fsnotify.Event{Name: "/var/log/./app.log", Op: fsnotify.Write}, true},
		{"remove", fsnotify.Event{Name: filename, Op: fsnotify.Remove}, false},
		{"rename", fsnotify.Event{Name: filename, Op: fsnotify.Rename}, false},
		{"chmod", fsnotify.Event{Name: filename, Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: "/var/log/other.log", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		if got := handleWatchEvent(tt.event, filename); got != tt.want {
			t.Errorf("handleWatchEvent(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRunWatchPrintsInitialReport(t *testing.T) {
	path := writeLog(t, jobLines()...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := 0
	run := func() (*formatter.Report, error) {
		runs++
		cancel()
		log, err := parser.ParseFile(path, parser.Options{})
		if err != nil {
			return nil, err
		}
		return buildPatternReport(path, log, analyzer.Options{Mode: analyzer.ModeDaemon, Sampling: analyzer.SamplingNone}), nil
	}

	var out bytes.Buffer
	if err := runWatch(ctx, &out, path, 10*time.Millisecond, run); err != nil {
		t.Fatalf("runWatch() error: %v", err)
	}

	if runs != 1 {
		t.Errorf("Expected one run, got %d", runs)
	}
	if !strings.HasPrefix(out.String(), "--- ") || !strings.Contains(out.String(), "5:\tcron") {
		t.Errorf("Unexpected watch output:\n%s", out.String())
	}
}

func TestRunWatchRejectsMissingFile(t *testing.T) {
	err := runWatch(context.Background(), &bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.log"), time.Millisecond, nil)
	var ioErr *common.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("Expected an IOError for a missing file, got %v", err)
	}
}

func TestWatchRejectsUnknownMode(t *testing.T) {
	path := writeLog(t, jobLines()...)
	_, err := runCLI(t, "", "watch", "--mode", "words", path)
	if err == nil || !strings.Contains(err.Error(), "--mode") {
		t.Errorf("Expected mode error, got %v", err)
	}
}
