package parser

import (
	"regexp"
	"time"

	"github.com/yildizm/glancelog/internal/common"
)

var (
	mysqlMatchRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z\s+\d+\s+(Query|Connect|Quit|Init|Execute|Prepare|Close|Field)`)
	mysqlParseRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z)\s+(\d+)\s+(\w+)\s*(.*)$`)

	pgMatchRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d+ \w+ \[\d+\] \S+@\S+ (LOG|ERROR|WARNING|FATAL|PANIC|DEBUG\d?|INFO|NOTICE|STATEMENT|DETAIL|HINT|CONTEXT):`)
	pgParseRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d+) (\w+) \[(\d+)\] (\S+)@(\S+) (\w+):\s*(.*)$`)
)

// MySQLDialect parses the MySQL general query log
type MySQLDialect struct {
	baseDialect
}

// NewMySQLDialect creates a MySQL general log dialect
func NewMySQLDialect(now func() time.Time) *MySQLDialect {
	return &MySQLDialect{baseDialect{format: common.FormatMySQL, now: now}}
}

func (d *MySQLDialect) CanParse(line string) bool {
	return mysqlMatchRe.MatchString(line)
}

func (d *MySQLDialect) TryParse(line string) (*common.LogEntry, bool) {
	m := mysqlParseRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	ts, err := time.Parse(time.RFC3339Nano, m[1])
	if err != nil {
		return nil, false
	}
	return d.entry(line, ts, "thread_"+m[2], m[3], m[4]), true
}

// PostgreSQLDialect parses logs written with
// log_line_prefix = '%m [%p] %u@%d '
type PostgreSQLDialect struct {
	baseDialect
}

// NewPostgreSQLDialect creates a PostgreSQL log dialect
func NewPostgreSQLDialect(now func() time.Time) *PostgreSQLDialect {
	return &PostgreSQLDialect{baseDialect{format: common.FormatPostgreSQL, now: now}}
}

func (d *PostgreSQLDialect) CanParse(line string) bool {
	return pgMatchRe.MatchString(line)
}

func (d *PostgreSQLDialect) TryParse(line string) (*common.LogEntry, bool) {
	m := pgParseRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	ts, err := time.ParseInLocation("2006-01-02 15:04:05.999999999", m[1], zoneFor(m[2]))
	if err != nil {
		return nil, false
	}
	return d.entry(line, ts, m[4]+"@"+m[5], m[6], m[7]), true
}

// zoneFor resolves a zone abbreviation. Abbreviations are ambiguous, so only
// UTC/GMT and the local zone's own names are trusted; anything else is read as UTC.
func zoneFor(abbr string) *time.Location {
	switch abbr {
	case "UTC", "GMT", "Z":
		return time.UTC
	}
	now := time.Now()
	if name, _ := now.Zone(); name == abbr {
		return time.Local
	}
	if loc, err := time.LoadLocation(abbr); err == nil {
		return loc
	}
	return time.UTC
}
