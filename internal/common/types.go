package common

import (
	"fmt"
	"strings"
	"time"
)

// Format identifies the log dialect that produced an entry
type Format string

const (
	FormatSyslog         Format = "syslog"
	FormatRSyslog        Format = "rsyslog"
	FormatJournalctl     Format = "journalctl"
	FormatApacheCLF      Format = "apache-clf"
	FormatApacheCombined Format = "apache-combined"
	FormatAWSELB         Format = "aws-elb"
	FormatAWSALB         Format = "aws-alb"
	FormatMySQL          Format = "mysql"
	FormatPostgreSQL     Format = "postgresql"
	FormatSecure         Format = "secure"
	FormatEVTX           Format = "evtx"
	FormatRaw            Format = "raw"
)

// AllFormats lists every supported dialect in detection priority order
var AllFormats = []Format{
	FormatEVTX,
	FormatPostgreSQL,
	FormatMySQL,
	FormatAWSALB,
	FormatAWSELB,
	FormatApacheCombined,
	FormatApacheCLF,
	FormatSecure,
	FormatJournalctl,
	FormatRSyslog,
	FormatSyslog,
	FormatRaw,
}

// ParseFormat converts a user supplied name into a Format
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range AllFormats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown log format: %s", name)
}

// LogEntry represents one normalized log record
type LogEntry struct {
	Timestamp  time.Time `json:"timestamp" msgpack:"timestamp"`
	Host       string    `json:"host" msgpack:"host"`
	Daemon     string    `json:"daemon" msgpack:"daemon"`
	Message    string    `json:"message" msgpack:"message"`
	Format     Format    `json:"format" msgpack:"format"`
	LineNumber int       `json:"line_number" msgpack:"line_number"`
	Malformed  bool      `json:"malformed,omitempty" msgpack:"malformed,omitempty"`
	Raw        string    `json:"-" msgpack:"-"`
}

// Source returns the verbatim input line, or a reconstruction for records
// that did not come from a text line
func (e *LogEntry) Source() string {
	if e.Raw != "" {
		return e.Raw
	}
	return e.String()
}

// String renders the entry in the print layout
func (e *LogEntry) String() string {
	return fmt.Sprintf("%s %s %s: %s", e.Timestamp.Format("2006-01-02T15:04:05"), e.Host, e.Daemon, e.Message)
}
