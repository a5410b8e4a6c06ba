package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/yildizm/glancelog/internal/common"
)

var (
	// Jan  2 15:04:05 host daemon[pid]: message
	bsdLineRe = regexp.MustCompile(`^([A-Z][a-z]{2})\s+(\d{1,2})\s+(\d{1,2}:\d{2}:\d{2})\s+(\S+)\s+(\S+)\s?(.*)$`)

	// 2024-01-02T15:04:05.123456+01:00 host daemon: message
	isoLineRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\S+)\s+(\S+)\s+(\S+)\s?(.*)$`)

	// journalctl -o short-iso: 2024-01-02T15:04:05+0100 host unit[pid]: message
	shortISORe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}[+-]\d{4})\s+(\S+)\s+(\S+)\s?(.*)$`)

	unitRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+(\[[0-9]+\])?:?$`)
)

const shortISOLayout = "2006-01-02T15:04:05-0700"

// bsdFields holds the pieces of a BSD style line
type bsdFields struct {
	ts      time.Time
	host    string
	daemon  string
	message string
}

func splitBSD(line string, now time.Time) (bsdFields, bool) {
	m := bsdLineRe.FindStringSubmatch(line)
	if m == nil {
		return bsdFields{}, false
	}
	ts, err := bsdTimestamp(m[1], m[2], m[3], now)
	if err != nil {
		return bsdFields{}, false
	}
	return bsdFields{
		ts:      ts,
		host:    m[4],
		daemon:  m[5],
		message: m[6],
	}, true
}

// SyslogDialect parses classic BSD syslog lines
type SyslogDialect struct {
	baseDialect
}

// NewSyslogDialect creates a syslog dialect using the given clock
func NewSyslogDialect(now func() time.Time) *SyslogDialect {
	return &SyslogDialect{baseDialect{format: common.FormatSyslog, now: now}}
}

func (d *SyslogDialect) CanParse(line string) bool {
	_, ok := splitBSD(line, d.now())
	return ok
}

func (d *SyslogDialect) TryParse(line string) (*common.LogEntry, bool) {
	f, ok := splitBSD(line, d.now())
	if !ok {
		return nil, false
	}
	return d.entry(line, f.ts, f.host, strings.TrimSuffix(f.daemon, ":"), f.message), true
}

// SecureDialect parses authentication logs such as /var/log/secure
type SecureDialect struct {
	baseDialect
}

// NewSecureDialect creates a secure log dialect using the given clock
func NewSecureDialect(now func() time.Time) *SecureDialect {
	return &SecureDialect{baseDialect{format: common.FormatSecure, now: now}}
}

func (d *SecureDialect) CanParse(line string) bool {
	f, ok := splitBSD(line, d.now())
	if !ok {
		return false
	}
	return strings.HasPrefix(f.daemon, "sshd[") || strings.HasPrefix(f.daemon, "sshd:") ||
		strings.HasPrefix(f.message, "pam_")
}

func (d *SecureDialect) TryParse(line string) (*common.LogEntry, bool) {
	f, ok := splitBSD(line, d.now())
	if !ok {
		return nil, false
	}
	return d.entry(line, f.ts, f.host, strings.TrimSuffix(f.daemon, ":"), f.message), true
}

// JournalctlDialect parses journalctl short and short-iso output
type JournalctlDialect struct {
	baseDialect
}

// NewJournalctlDialect creates a journalctl dialect using the given clock
func NewJournalctlDialect(now func() time.Time) *JournalctlDialect {
	return &JournalctlDialect{baseDialect{format: common.FormatJournalctl, now: now}}
}

func (d *JournalctlDialect) CanParse(line string) bool {
	_, ok := d.TryParse(line)
	return ok
}

func (d *JournalctlDialect) TryParse(line string) (*common.LogEntry, bool) {
	if m := shortISORe.FindStringSubmatch(line); m != nil {
		if !unitRe.MatchString(m[3]) {
			return nil, false
		}
		ts, err := time.Parse(shortISOLayout, m[1])
		if err != nil {
			return nil, false
		}
		return d.entry(line, ts, m[2], strings.TrimSuffix(m[3], ":"), m[4]), true
	}

	f, ok := splitBSD(line, d.now())
	if !ok || !unitRe.MatchString(f.daemon) {
		return nil, false
	}
	return d.entry(line, f.ts, f.host, strings.TrimSuffix(f.daemon, ":"), f.message), true
}

// RSyslogDialect parses rsyslog's high precision RFC 3339 format
type RSyslogDialect struct {
	baseDialect
}

// NewRSyslogDialect creates an rsyslog dialect
func NewRSyslogDialect(now func() time.Time) *RSyslogDialect {
	return &RSyslogDialect{baseDialect{format: common.FormatRSyslog, now: now}}
}

func (d *RSyslogDialect) CanParse(line string) bool {
	_, ok := d.TryParse(line)
	return ok
}

func (d *RSyslogDialect) TryParse(line string) (*common.LogEntry, bool) {
	m := isoLineRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	ts, err := time.Parse(time.RFC3339Nano, m[1])
	if err != nil {
		return nil, false
	}
	return d.entry(line, ts, m[2], strings.TrimSuffix(m[3], ":"), m[4]), true
}
