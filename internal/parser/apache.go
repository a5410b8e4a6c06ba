package parser

import (
	"fmt"
	"regexp"
	"time"

	"github.com/yildizm/glancelog/internal/common"
)

const apacheTimeLayout = "02/Jan/2006:15:04:05 -0700"

var (
	clfMatchRe      = regexp.MustCompile(`^\S+ \S+ \S+ \[\d{2}/\w{3}/\d{4}:\d{2}:\d{2}:\d{2} [+-]\d{4}\] "\S+ \S+ \S+" \d+ (?:\d+|-)$`)
	combinedMatchRe = regexp.MustCompile(`^\S+ \S+ \S+ \[\d{2}/\w{3}/\d{4}:\d{2}:\d{2}:\d{2} [+-]\d{4}\] "\S+ \S+ \S+" \d+ (?:\d+|-) "[^"]*" "[^"]*"$`)

	// referer and user agent are optional so combined parsing degrades to CLF
	apacheParseRe = regexp.MustCompile(`^(\S+) (\S+) (\S+) \[([^\]]+)\] "([^"]*)" (\d{3}) (\S+)(?: "([^"]*)" "([^"]*)")?`)
)

type apacheFields struct {
	ts       time.Time
	client   string
	request  string
	status   string
	bytes    string
	referer  string
	agent    string
	combined bool
}

func splitApache(line string) (apacheFields, bool) {
	idx := apacheParseRe.FindStringSubmatchIndex(line)
	if idx == nil {
		return apacheFields{}, false
	}
	group := func(n int) string {
		if idx[2*n] < 0 {
			return ""
		}
		return line[idx[2*n]:idx[2*n+1]]
	}

	ts, err := time.Parse(apacheTimeLayout, group(4))
	if err != nil {
		return apacheFields{}, false
	}
	return apacheFields{
		ts:       ts,
		client:   group(1),
		request:  group(5),
		status:   group(6),
		bytes:    group(7),
		referer:  group(8),
		agent:    group(9),
		combined: idx[16] >= 0,
	}, true
}

// ApacheCLFDialect parses the Common Log Format
type ApacheCLFDialect struct {
	baseDialect
}

// NewApacheCLFDialect creates a common log format dialect
func NewApacheCLFDialect(now func() time.Time) *ApacheCLFDialect {
	return &ApacheCLFDialect{baseDialect{format: common.FormatApacheCLF, now: now}}
}

func (d *ApacheCLFDialect) CanParse(line string) bool {
	return clfMatchRe.MatchString(line)
}

func (d *ApacheCLFDialect) TryParse(line string) (*common.LogEntry, bool) {
	f, ok := splitApache(line)
	if !ok {
		return nil, false
	}
	msg := fmt.Sprintf("%s %s %s", f.request, f.status, f.bytes)
	return d.entry(line, f.ts, f.client, requestMethod(f.request, "HTTP"), msg), true
}

// ApacheCombinedDialect parses the Combined Log Format
type ApacheCombinedDialect struct {
	baseDialect
}

// NewApacheCombinedDialect creates a combined log format dialect
func NewApacheCombinedDialect(now func() time.Time) *ApacheCombinedDialect {
	return &ApacheCombinedDialect{baseDialect{format: common.FormatApacheCombined, now: now}}
}

func (d *ApacheCombinedDialect) CanParse(line string) bool {
	return combinedMatchRe.MatchString(line)
}

func (d *ApacheCombinedDialect) TryParse(line string) (*common.LogEntry, bool) {
	f, ok := splitApache(line)
	if !ok {
		return nil, false
	}
	msg := fmt.Sprintf("%s %s %s", f.request, f.status, f.bytes)
	if f.combined {
		msg = fmt.Sprintf(`%s "%s" "%s"`, msg, f.referer, f.agent)
	}
	return d.entry(line, f.ts, f.client, requestMethod(f.request, "HTTP"), msg), true
}
