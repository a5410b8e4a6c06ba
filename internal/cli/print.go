package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/yildizm/glancelog/internal/common"
	"github.com/yildizm/glancelog/internal/parser"
)

func newPrintCommand() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "print [file]",
		Short: "Print entries in a normalized layout",
		Long: `Parse the input and print every entry as

  YYYY-MM-DDTHH:MM:SS host daemon: message

which makes logs of different dialects comparable with plain text tools.
With --follow the file is tailed and new lines are printed as they arrive,
parsed with the dialect detected from the start of the file.`,
		Example: `  glancelog print access.log
  glancelog print --from "2024-03-01 10:00" --to "2024-03-01 11:00" syslog
  glancelog print --follow /var/log/auth.log`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if follow {
				if len(args) == 0 {
					return fmt.Errorf("--follow needs a file")
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return runFollow(ctx, cmd.OutOrStdout(), args[0])
			}
			return runPrint(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&follow, "follow", false, "keep reading lines appended to the file")

	return cmd
}

// runPrint writes every entry of the input in the print layout
func runPrint(cmd *cobra.Command, args []string) error {
	log, _, err := loadInput(cmd, args)
	if err != nil {
		return err
	}

	var b strings.Builder
	layout := timestampLayout()
	for _, entry := range log.Entries {
		b.WriteString(formatPrintLine(entry, layout))
		b.WriteByte('\n')
	}

	return handleOutputDestination(cmd.OutOrStdout(), []byte(b.String()))
}

// formatPrintLine renders one entry as "timestamp host daemon: message"
func formatPrintLine(entry *common.LogEntry, layout string) string {
	return fmt.Sprintf("%s %s %s: %s", entry.Timestamp.Format(layout), entry.Host, entry.Daemon, entry.Message)
}

// timestampLayout is the configured print layout
func timestampLayout() string {
	if layout := GetGlobalConfig().Output.TimestampFormat; layout != "" {
		return layout
	}
	return "2006-01-02T15:04:05"
}

// runFollow tails path and prints each appended line until ctx is done
func runFollow(ctx context.Context, w io.Writer, path string) error {
	path = filepath.Clean(path)
	if err := validateFilePath(path); err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	dialect, err := followDialect(path)
	if err != nil {
		return err
	}
	cliLogger().Debug("Following %s as %s", path, dialect.Format())

	loc := tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Location:  &loc,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return &common.IOError{Op: "tail", Path: path, Err: err}
	}
	defer func() {
		if err := t.Stop(); err != nil {
			cliLogger().Debug("tail stop: %v", err)
		}
		t.Cleanup()
	}()

	return printTailLines(ctx, w, t.Lines, dialect, timestampLayout())
}

// printTailLines parses and prints lines from a tail channel
func printTailLines(ctx context.Context, w io.Writer, lines <-chan *tail.Line, dialect parser.Dialect, layout string) error {
	number := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				cliLogger().Warn("tail: %v", line.Err)
				continue
			}
			text := strings.TrimRight(line.Text, "\r")
			if strings.TrimSpace(text) == "" {
				continue
			}
			number++
			entry := parser.ParseLine(dialect, text, number)
			if _, err := fmt.Fprintln(w, formatPrintLine(entry, layout)); err != nil {
				return err
			}
		}
	}
}

// followDialect picks the dialect for a followed file: the --format dialect,
// or the one detected from the first lines of the file
func followDialect(path string) (parser.Dialect, error) {
	factory := parser.NewFactory(nil)

	format, err := forcedFormat()
	if err != nil {
		return nil, err
	}
	if format == common.FormatEVTX {
		return nil, fmt.Errorf("cannot follow %s logs", format)
	}
	if format != "" {
		return factory.Create(format)
	}

	sample, binary, err := readHead(path, parser.SampleSize)
	if err != nil {
		return nil, err
	}
	if binary {
		return nil, fmt.Errorf("cannot follow binary event log %s", path)
	}

	return factory.Create(factory.DetectFormat(sample))
}

// readHead returns up to n non-empty leading lines of path and whether the
// file is a binary event log
func readHead(path string, n int) ([]string, bool, error) {
	// #nosec G304 - reading user supplied log files is the point
	file, err := os.Open(path)
	if err != nil {
		return nil, false, &common.IOError{Op: "open", Path: path, Err: err}
	}
	defer func() {
		_ = file.Close()
	}()

	br := bufio.NewReader(file)
	if header, _ := br.Peek(8); parser.IsEVTX(header) {
		return nil, true, nil
	}

	lines := make([]string, 0, n)
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() && len(lines) < n {
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) != "" {
			lines = append(lines, text)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false, &common.IOError{Op: "read", Path: path, Err: err}
	}

	return lines, false, nil
}
