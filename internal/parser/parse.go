package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yildizm/glancelog/internal/common"
)

// Parse reads the whole input, selects one dialect for it and builds a Log.
// Binary event logs are recognized by their signature before any line
// detection happens.
func Parse(r io.Reader, opts Options) (*common.Log, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	header, err := br.Peek(len(evtxMagic))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, &common.IOError{Op: "read", Path: opts.Path, Err: err}
	}
	if opts.Format == common.FormatEVTX || (opts.Format == "" && IsEVTX(header)) {
		return parseEVTX(br, opts)
	}

	lines, err := readLines(br, opts.MaxLines)
	if err != nil {
		return nil, &common.IOError{Op: "read", Path: opts.Path, Err: err}
	}
	if len(lines) == 0 {
		return nil, common.ErrUnrecognizedFormat
	}

	factory := NewFactory(opts.clock())
	format := opts.Format
	if format == "" {
		sample := make([]string, 0, SampleSize)
		for i := 0; i < len(lines) && i < SampleSize; i++ {
			sample = append(sample, lines[i].text)
		}
		format = factory.DetectFormat(sample)
	}

	dialect, err := factory.Create(format)
	if err != nil {
		return nil, err
	}

	entries := make([]*common.LogEntry, 0, len(lines))
	for _, l := range lines {
		if l.truncated {
			entry := malformed(dialect.Format(), l.text)
			entry.LineNumber = l.number
			entries = append(entries, entry)
			continue
		}
		entries = append(entries, ParseLine(dialect, l.text, l.number))
	}

	return common.NewLog(format, entries), nil
}

// ParseFile opens path and parses it
func ParseFile(path string, opts Options) (*common.Log, error) {
	cleanPath := filepath.Clean(path)

	// #nosec G304 - reading user supplied log files is the point
	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, &common.IOError{Op: "open", Path: path, Err: err}
	}
	defer func() {
		_ = file.Close()
	}()

	opts.Path = cleanPath
	return Parse(file, opts)
}

// ParseLine parses one line with the dialect, keeping lines that break the
// grammar as malformed raw-shaped entries
func ParseLine(dialect Dialect, text string, number int) *common.LogEntry {
	entry, ok := dialect.TryParse(text)
	if !ok {
		entry = malformed(dialect.Format(), text)
	}
	entry.LineNumber = number
	return entry
}

// parseEVTX decodes a binary event log. The decoder needs random access, so
// input that is not a named file is spooled to a temporary file first.
func parseEVTX(r io.Reader, opts Options) (*common.Log, error) {
	dialect := NewEVTXDialect(opts.clock())

	path := opts.Path
	if path == "" {
		tmp, err := os.CreateTemp("", "glancelog-*.evtx")
		if err != nil {
			return nil, &common.IOError{Op: "buffer", Err: err}
		}
		defer func() {
			_ = os.Remove(tmp.Name())
		}()

		if _, err := io.Copy(tmp, r); err != nil {
			_ = tmp.Close()
			return nil, &common.IOError{Op: "read", Err: err}
		}
		if err := tmp.Close(); err != nil {
			return nil, &common.IOError{Op: "buffer", Err: err}
		}
		path = tmp.Name()
	}

	entries, err := dialect.Decode(path)
	if err != nil {
		var corrupt *common.CorruptBinaryError
		if errors.As(err, &corrupt) {
			corrupt.Path = opts.Path
			return nil, corrupt
		}
		return nil, fmt.Errorf("failed to decode event log: %w", err)
	}

	return common.NewLog(common.FormatEVTX, entries), nil
}
