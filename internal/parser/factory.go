package parser

import (
	"fmt"
	"time"

	"github.com/yildizm/glancelog/internal/common"
)

// preferredOrder breaks detection ties: specific dialects before generic ones
var preferredOrder = []common.Format{
	common.FormatPostgreSQL,
	common.FormatMySQL,
	common.FormatAWSALB,
	common.FormatAWSELB,
	common.FormatApacheCombined,
	common.FormatApacheCLF,
	common.FormatSecure,
	common.FormatJournalctl,
	common.FormatRSyslog,
	common.FormatSyslog,
}

// Factory creates dialects that share one clock
type Factory struct {
	now func() time.Time
}

// NewFactory creates a dialect factory; a nil clock means time.Now
func NewFactory(now func() time.Time) *Factory {
	if now == nil {
		now = time.Now
	}
	return &Factory{now: now}
}

// Create returns a fresh dialect for the format
func (f *Factory) Create(format common.Format) (Dialect, error) {
	switch format {
	case common.FormatSyslog:
		return NewSyslogDialect(f.now), nil
	case common.FormatRSyslog:
		return NewRSyslogDialect(f.now), nil
	case common.FormatJournalctl:
		return NewJournalctlDialect(f.now), nil
	case common.FormatApacheCLF:
		return NewApacheCLFDialect(f.now), nil
	case common.FormatApacheCombined:
		return NewApacheCombinedDialect(f.now), nil
	case common.FormatAWSELB:
		return NewAWSELBDialect(f.now), nil
	case common.FormatAWSALB:
		return NewAWSALBDialect(f.now), nil
	case common.FormatMySQL:
		return NewMySQLDialect(f.now), nil
	case common.FormatPostgreSQL:
		return NewPostgreSQLDialect(f.now), nil
	case common.FormatSecure:
		return NewSecureDialect(f.now), nil
	case common.FormatEVTX:
		return NewEVTXDialect(f.now), nil
	case common.FormatRaw:
		return NewRawDialect(f.now), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}

// DetectFormat scores every text dialect against the sample and returns the
// one that recognizes the most lines. Ties go to the earlier entry in
// preferredOrder; no match at all means raw.
func (f *Factory) DetectFormat(sample []string) common.Format {
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}

	scores := make(map[common.Format]int, len(preferredOrder))
	for _, format := range preferredOrder {
		dialect, err := f.Create(format)
		if err != nil {
			continue
		}
		for _, line := range sample {
			if dialect.CanParse(line) {
				scores[format]++
			}
		}
	}

	bestFormat := common.FormatRaw
	bestScore := 0
	for _, format := range preferredOrder {
		if score := scores[format]; score > bestScore {
			bestFormat = format
			bestScore = score
		}
	}

	return bestFormat
}

// Formats lists every supported dialect
func Formats() []common.Format {
	formats := make([]common.Format, len(common.AllFormats))
	copy(formats, common.AllFormats)
	return formats
}
