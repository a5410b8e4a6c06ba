package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yildizm/glancelog/internal/common"
)

const maxLineSize = 1024 * 1024 // 1MB

// baseDialect carries what every text dialect shares
type baseDialect struct {
	format common.Format
	now    func() time.Time
}

func (b *baseDialect) Format() common.Format {
	return b.format
}

// entry creates an entry stamped with this dialect's format
func (b *baseDialect) entry(line string, ts time.Time, host, daemon, message string) *common.LogEntry {
	return &common.LogEntry{
		Timestamp: ts,
		Host:      host,
		Daemon:    daemon,
		Message:   message,
		Format:    b.format,
		Raw:       line,
	}
}

// malformed keeps a line that broke the dialect grammar in raw shape
func malformed(format common.Format, line string) *common.LogEntry {
	return &common.LogEntry{
		Message:   line,
		Format:    format,
		Raw:       line,
		Malformed: true,
	}
}

// line is a non-empty input line and its 1-based position. Truncated lines
// were cut at maxLineSize and are never handed to a dialect.
type line struct {
	text      string
	number    int
	truncated bool
}

// readLines reads non-empty lines, stopping after maxLines when positive
func readLines(reader io.Reader, maxLines int) ([]line, error) {
	var lines []line
	br := bufio.NewReaderSize(reader, 64*1024)

	number := 0
	for {
		text, truncated, err := readLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return lines, fmt.Errorf("read error: %w", err)
		}

		number++
		text = strings.TrimRight(text, "\r")
		if strings.TrimSpace(text) == "" {
			continue // Skip empty lines
		}
		lines = append(lines, line{text: text, number: number, truncated: truncated})
		if maxLines > 0 && len(lines) >= maxLines {
			break
		}
	}

	return lines, nil
}

// readLine returns the next line without its terminator. Bytes past
// maxLineSize are dropped and reported through truncated.
func readLine(br *bufio.Reader) (string, bool, error) {
	var (
		buf       []byte
		truncated bool
	)
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if len(buf) > 0 {
				return string(buf), truncated, nil
			}
			return "", false, err
		}

		if room := maxLineSize - len(buf); len(chunk) > room {
			buf = append(buf, chunk[:room]...)
			truncated = true
		} else {
			buf = append(buf, chunk...)
		}
		if !isPrefix {
			return string(buf), truncated, nil
		}
	}
}

// bsdTimestamp builds a timestamp for formats that omit the year. The year is
// borrowed from now and rolled back when that would put the entry more than a
// month in the future, which happens when reading December logs in January.
func bsdTimestamp(month, day, clock string, now time.Time) (time.Time, error) {
	parsed, err := time.Parse("Jan 2 15:04:05", month+" "+day+" "+clock)
	if err != nil {
		return time.Time{}, err
	}

	ts := time.Date(now.Year(), parsed.Month(), parsed.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0, now.Location())
	if ts.After(now.AddDate(0, 1, 0)) {
		ts = ts.AddDate(-1, 0, 0)
	}
	return ts, nil
}

// requestMethod returns the first word of an HTTP request line
func requestMethod(request, fallback string) string {
	if fields := strings.Fields(request); len(fields) > 0 {
		return fields[0]
	}
	return fallback
}

// quoted returns the text between the first pair of double quotes
func quoted(line string) string {
	start := strings.IndexByte(line, '"')
	if start < 0 {
		return "-"
	}
	end := strings.IndexByte(line[start+1:], '"')
	if end < 0 {
		return "-"
	}
	return line[start+1 : start+1+end]
}

// hostOf strips the port from an address:port pair
func hostOf(addr string) string {
	if i := strings.LastIndexByte(addr, ':'); i > 0 {
		return addr[:i]
	}
	return addr
}
