package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/yildizm/glancelog/internal/analyzer"
	"github.com/yildizm/glancelog/internal/formatter"
)

// watchRun produces one report for the watched file
type watchRun func() (*formatter.Report, error)

func newWatchCommand() *cobra.Command {
	var (
		mode     string
		debounce time.Duration
	)
	pf := &patternFlags{}
	gf := &graphFlags{}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-run a report whenever a log file changes",
		Long: `Monitor a log file and print a fresh hash or graph report each time it is
written to. Bursts of writes are coalesced with a short debounce. Press
Ctrl+C to stop watching.`,
		Example: `  glancelog watch /var/log/syslog
  glancelog watch --mode graph --unit second app.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig().Watch
			if !cmd.Flags().Changed("mode") {
				mode = cfg.Mode
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = cfg.Debounce
			}

			run, err := watchRunner(cmd, args, mode, pf, gf)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cmd.OutOrStdout(), args[0], debounce, run)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "hash", "report to re-run (hash or graph)")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before re-running")
	addPatternFlags(cmd, pf)
	cmd.Flags().StringVarP(&gf.unit, "unit", "u", string(analyzer.UnitMinute), "graph bucket size")
	cmd.Flags().IntVar(&gf.width, "width", analyzer.DefaultWidth, "length of the longest bar")

	return cmd
}

// watchRunner resolves the options once and returns a closure that re-parses
// the file on every call
func watchRunner(cmd *cobra.Command, args []string, mode string, pf *patternFlags, gf *graphFlags) (watchRun, error) {
	switch strings.ToLower(mode) {
	case "", "hash":
		opts, filterSource, err := patternOptions(cmd, analyzer.ModeHash, pf)
		if err != nil {
			return nil, err
		}
		return func() (*formatter.Report, error) {
			log, source, err := loadInput(cmd, args)
			if err != nil {
				return nil, err
			}
			report := buildPatternReport(source, log, opts)
			report.FilterSource = filterSource
			return report, nil
		}, nil

	case "graph":
		unit, render, err := graphOptions(cmd, "", gf)
		if err != nil {
			return nil, err
		}
		return func() (*formatter.Report, error) {
			log, source, err := loadInput(cmd, args)
			if err != nil {
				return nil, err
			}
			from, to, err := timeRange()
			if err != nil {
				return nil, err
			}
			report, err := buildGraphReport(source, log, unit, from, to)
			if err != nil {
				return nil, err
			}
			report.Graph = render
			return report, nil
		}, nil

	default:
		return nil, fmt.Errorf("invalid --mode: %s (must be hash or graph)", mode)
	}
}

// runWatch prints a report, then another one after every settled change
// to filename until ctx is cancelled
func runWatch(ctx context.Context, w io.Writer, filename string, debounce time.Duration, run watchRun) error {
	filename = filepath.Clean(filename)
	if err := validateFilePath(filename); err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	watcher, err := createWatcher(filename)
	if err != nil {
		return err
	}
	defer cleanupWatcher(watcher)

	cliLogger().Info("Watching file: %s", filename)
	cliLogger().Info("Press Ctrl+C to stop...")

	printWatchReport(w, run)
	return runWatchLoop(ctx, w, watcher, filename, debounce, run)
}

// runWatchLoop waits for write events and re-runs the report once the file
// has been quiet for the debounce period
func runWatchLoop(ctx context.Context, w io.Writer, watcher *fsnotify.Watcher, filename string, debounce time.Duration, run watchRun) error {
	// pending fires once the file has been quiet for the debounce period
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			cliLogger().Info("Received interrupt signal, stopping...")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if handleWatchEvent(event, filename) {
				pending = time.After(debounce)
			}

		case <-pending:
			pending = nil
			printWatchReport(w, run)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			cliLogger().Warn("Watcher error: %v", err)
		}
	}
}

// handleWatchEvent reports whether event should trigger a re-run. Rotation
// shows up as a remove or rename followed by a create of the same name.
func handleWatchEvent(event fsnotify.Event, filename string) bool {
	if filepath.Clean(event.Name) != filename {
		return false
	}
	switch {
	case event.Has(fsnotify.Write):
		return true
	case event.Has(fsnotify.Create):
		return true
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		cliLogger().Debug("%s was rotated, waiting for it to return", filename)
		return false
	}
	return false
}

// printWatchReport runs and writes one report with a separator header
func printWatchReport(w io.Writer, run watchRun) {
	report, err := run()
	if err != nil {
		cliLogger().Warn("analysis failed: %v", err)
		return
	}

	f, err := formatter.New("text", formatter.Options{Color: useColor(), Emoji: !noEmoji, Summary: isVerbose()})
	if err != nil {
		cliLogger().Error("failed to get formatter: %v", err)
		return
	}
	output, err := f.Format(report)
	if err != nil {
		cliLogger().Error("failed to format output: %v", err)
		return
	}

	fmt.Fprintf(w, "--- %s ---\n", time.Now().Format("2006-01-02 15:04:05"))
	if _, err := w.Write(output); err != nil {
		cliLogger().Warn("write failed: %v", err)
	}
}

// cleanupWatcher safely closes watcher with error logging
func cleanupWatcher(watcher *fsnotify.Watcher) {
	if err := watcher.Close(); err != nil {
		cliLogger().Warn("failed to close watcher: %v", err)
	}
}

// createWatcher watches the directory holding filename so that rotated
// files are picked up again
func createWatcher(filename string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(filename)); err != nil {
		cleanupWatcher(watcher)
		return nil, fmt.Errorf("failed to watch file: %w", err)
	}

	return watcher, nil
}
