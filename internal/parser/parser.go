package parser

import (
	"time"

	"github.com/yildizm/glancelog/internal/common"
)

// Dialect recognizes one log format and turns its lines into entries
type Dialect interface {
	// Format returns the tag stamped on every entry this dialect produces
	Format() common.Format

	// CanParse reports whether a line belongs to this dialect
	CanParse(line string) bool

	// TryParse parses a single line, returning false if it does not fit the grammar
	TryParse(line string) (*common.LogEntry, bool)
}

// Options controls a parse pass
type Options struct {
	// Format forces a dialect; empty means auto-detect
	Format common.Format

	// Now is the clock used for year inference and raw timestamps
	Now func() time.Time

	// MaxLines stops reading after this many non-empty lines; 0 means no limit
	MaxLines int

	// Path is the input file name, empty for stdin
	Path string
}

// SampleSize is how many leading lines detection looks at
const SampleSize = 10

func (o Options) clock() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}
