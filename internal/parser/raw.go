package parser

import (
	"time"

	"github.com/yildizm/glancelog/internal/common"
)

// RawDialect accepts any line. Timestamps are synthetic: the parse start time
// advanced one millisecond per line, which keeps entries sortable in file order.
type RawDialect struct {
	baseDialect
	start time.Time
	index int
}

// NewRawDialect creates the fallback dialect
func NewRawDialect(now func() time.Time) *RawDialect {
	return &RawDialect{
		baseDialect: baseDialect{format: common.FormatRaw, now: now},
		start:       now(),
	}
}

func (d *RawDialect) CanParse(line string) bool {
	return line != ""
}

func (d *RawDialect) TryParse(line string) (*common.LogEntry, bool) {
	ts := d.start.Add(time.Duration(d.index) * time.Millisecond)
	d.index++
	return d.entry(line, ts, "", "", line), true
}
