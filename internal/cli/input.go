package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/glancelog/internal/common"
	"github.com/yildizm/glancelog/internal/filter"
	"github.com/yildizm/glancelog/internal/formatter"
	"github.com/yildizm/glancelog/internal/logger"
	"github.com/yildizm/glancelog/internal/monitor"
	"github.com/yildizm/glancelog/internal/parser"
)

// timeLayouts are accepted by --from and --to, most precise first
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// loadInput parses the file named in args, or the command's stdin, and
// applies the --from/--to window. The returned source is empty for stdin.
func loadInput(cmd *cobra.Command, args []string) (*common.Log, string, error) {
	opts, err := parseOptions()
	if err != nil {
		return nil, "", err
	}

	var (
		log     *common.Log
		source  string
		started = time.Now()
	)
	if len(args) == 0 {
		cliLogger().Debug("Reading from stdin...")
		log, err = parser.Parse(cmd.InOrStdin(), opts)
	} else {
		source = filepath.Clean(args[0])
		if err := validateFilePath(source); err != nil {
			return nil, "", fmt.Errorf("invalid file path: %w", err)
		}
		cliLogger().Debug("Analyzing file: %s", source)
		log, err = parser.ParseFile(source, opts)
	}
	if err != nil {
		if errors.Is(err, common.ErrUnrecognizedFormat) {
			return nil, "", fmt.Errorf("no log entries found: %w", err)
		}
		return nil, "", err
	}

	cliLogger().DebugWithFields("Parsed input", []logger.Field{
		logger.Count(log.Len()),
		logger.F("format", string(log.Format)),
		logger.Duration(time.Since(started)),
	})

	from, to, err := timeRange()
	if err != nil {
		return nil, "", err
	}
	if from != nil || to != nil {
		log = log.FilterByTime(from, to)
		cliLogger().Debug("%d entries inside the time window", log.Len())
	}

	return log, source, nil
}

// parseOptions builds parser options from the flags and configuration
func parseOptions() (parser.Options, error) {
	opts := parser.Options{MaxLines: GetGlobalConfig().Input.MaxLines}

	format, err := forcedFormat()
	if err != nil {
		return opts, err
	}
	opts.Format = format
	return opts, nil
}

// forcedFormat returns the dialect named by --format, or empty for auto
func forcedFormat() (common.Format, error) {
	name := strings.TrimSpace(inputFormat)
	if name == "" || strings.EqualFold(name, "auto") {
		return "", nil
	}
	format, err := common.ParseFormat(name)
	if err != nil {
		return "", fmt.Errorf("invalid --format: %w", err)
	}
	return format, nil
}

// timeRange parses --from and --to
func timeRange() (from, to *time.Time, err error) {
	if fromFlag != "" {
		t, err := parseTimeFlag(fromFlag)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --from: %w", err)
		}
		from = &t
	}
	if toFlag != "" {
		t, err := parseTimeFlag(toFlag)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --to: %w", err)
		}
		to = &t
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, fmt.Errorf("--from %s is after --to %s", fromFlag, toFlag)
	}
	return from, to, nil
}

// parseTimeFlag accepts the layouts in timeLayouts, in local time
func parseTimeFlag(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (use YYYY-MM-DD, YYYY-MM-DD HH:MM or YYYY-MM-DD HH:MM:SS)", value)
}

// loadFilter resolves the stopword filter for a grouping mode. Rules that
// fail to compile are reported and skipped.
func loadFilter(mode string) (*filter.Filter, string, error) {
	name, err := filter.FileForMode(mode)
	if err != nil {
		return nil, "", err
	}

	if noFilter {
		cliLogger().Debug("Filters disabled, using fallback for %s", name)
		return filter.Fallback(name), "disabled", nil
	}

	loaded, err := filter.Load(name, filter.DefaultResolveOptions(filterDir))
	if err != nil {
		return nil, "", fmt.Errorf("failed to load filter %s: %w", name, err)
	}

	source := loaded.Source.Path
	for _, warning := range loaded.Warnings {
		cliLogger().WarnWithFields("Skipping filter rule", []logger.Field{
			logger.F("source", source),
			logger.Error(warning),
		})
	}
	cliLogger().Debug("Loaded %d filter rules from %s", loaded.Filter.Len(), source)

	return loaded.Filter, source, nil
}

// logRunStats reports stage timings in verbose mode
func logRunStats(tracker *monitor.Tracker) {
	if !isVerbose() {
		return
	}
	snapshot := tracker.Snapshot()
	cliLogger().InfoWithFields("%s", []logger.Field{
		logger.Count(int(snapshot.Processing.TotalEntries)),
		logger.Duration(snapshot.Processing.Duration),
	}, snapshot.Summary())
}

// writeReport formats a report and sends it to --output-file or stdout
func writeReport(cmd *cobra.Command, report *formatter.Report) error {
	format := getOutputFormat()
	f, err := formatter.New(format, formatter.Options{
		Color:   useColor() && outputFile == "",
		Emoji:   !noEmoji,
		Summary: isVerbose(),
	})
	if err != nil {
		return fmt.Errorf("failed to get formatter: %w", err)
	}

	output, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if formatter.Binary(format) && outputFile == "" && isTerminal(os.Stdout) {
		cliLogger().Warn("writing %s output to a terminal, consider --output-file", format)
	}

	return handleOutputDestination(cmd.OutOrStdout(), output)
}

// handleOutputDestination writes output to file or w
func handleOutputDestination(w io.Writer, output []byte) error {
	if outputFile != "" {
		if err := validateOutputFilePath(outputFile); err != nil {
			return fmt.Errorf("invalid output file path: %w", err)
		}

		if err := writeOutputBytesToFile(output, outputFile); err != nil {
			return fmt.Errorf("failed to write output to file: %w", err)
		}

		cliLogger().Debug("Output saved to: %s", outputFile)
		return nil
	}

	_, err := w.Write(output)
	return err
}

// validateFilePath checks that path names a readable regular file. Failures
// are reported as *common.IOError.
func validateFilePath(path string) error {
	if path == "" {
		return &common.IOError{Op: "open", Err: errors.New("empty file path")}
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return &common.IOError{Op: "stat", Path: cleanPath, Err: err}
	}

	if info.IsDir() {
		return &common.IOError{Op: "open", Path: cleanPath, Err: errors.New("path is a directory, not a file")}
	}

	return nil
}

func validateOutputFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty file path")
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("path is a directory: %s", path)
	}
	return nil
}

// writeOutputBytesToFile writes output to a file with proper error handling
func writeOutputBytesToFile(output []byte, filePath string) error {
	cleanPath := filepath.Clean(filePath)

	// #nosec G304 - the user chose this path
	file, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			cliLogger().Warn("failed to close output file: %v", closeErr)
		}
	}()

	if _, err := file.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	return nil
}
