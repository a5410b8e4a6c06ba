package analyzer

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/yildizm/glancelog/internal/common"
	"github.com/yildizm/glancelog/internal/filter"
)

// Mode selects how entries are grouped into patterns
type Mode string

const (
	ModeHash     Mode = "hash"
	ModeDaemon   Mode = "daemon"
	ModeHost     Mode = "host"
	ModeWords    Mode = "words"
	ModeTemplate Mode = "template"
)

// Sampling controls which source lines a pattern keeps
type Sampling int

const (
	// SamplingThreshold keeps lines while the pattern is still rare
	SamplingThreshold Sampling = iota
	// SamplingNone keeps counts only
	SamplingNone
	// SamplingAll keeps every line
	SamplingAll
)

// DefaultThreshold is the count at or below which a pattern counts as rare
const DefaultThreshold = 3

func (s Sampling) String() string {
	switch s {
	case SamplingNone:
		return "none"
	case SamplingAll:
		return "all"
	default:
		return "threshold"
	}
}

// ParseMode converts a mode name, accepting "wordcount" for words
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hash":
		return ModeHash, nil
	case "daemon":
		return ModeDaemon, nil
	case "host":
		return ModeHost, nil
	case "words", "wordcount":
		return ModeWords, nil
	case "template":
		return ModeTemplate, nil
	default:
		return "", fmt.Errorf("unknown mode: %s", name)
	}
}

// ParseSampling converts a sampling name
func ParseSampling(name string) (Sampling, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "threshold", "sample":
		return SamplingThreshold, nil
	case "none", "nosample":
		return SamplingNone, nil
	case "all", "allsample":
		return SamplingAll, nil
	default:
		return SamplingThreshold, fmt.Errorf("unknown sampling mode: %s", name)
	}
}

// Options configures a pattern build
type Options struct {
	Mode      Mode
	Filter    *filter.Filter
	Threshold int
	Sampling  Sampling
	Template  TemplateConfig
}

// PatternRecord is one canonical pattern and its occurrences
type PatternRecord struct {
	Key       string    `json:"key" msgpack:"key"`
	Count     int       `json:"count" msgpack:"count"`
	Samples   []string  `json:"samples,omitempty" msgpack:"samples,omitempty"`
	FirstSeen time.Time `json:"first_seen,omitempty" msgpack:"first_seen"`
	LastSeen  time.Time `json:"last_seen,omitempty" msgpack:"last_seen"`
	Order     int       `json:"-" msgpack:"-"`
}

// Table is the frequency table produced by Build, sorted by count
type Table struct {
	Mode      Mode
	Sampling  Sampling
	Threshold int
	Records   []*PatternRecord

	// Total is the sum of all counts. It equals the entry count for every
	// mode except words, where one entry contributes many tokens.
	Total int

	index map[string]*PatternRecord
}

func newTable(opts Options) *Table {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Table{
		Mode:      opts.Mode,
		Sampling:  opts.Sampling,
		Threshold: threshold,
		index:     make(map[string]*PatternRecord),
	}
}

// Build groups entries into patterns. A nil filter leaves keys verbatim.
func Build(entries []*common.LogEntry, opts Options) *Table {
	if opts.Mode == "" {
		opts.Mode = ModeHash
	}
	if opts.Mode == ModeTemplate {
		return buildTemplates(entries, opts)
	}

	table := newTable(opts)
	for _, entry := range entries {
		switch opts.Mode {
		case ModeDaemon:
			table.add(opts.Filter.Apply(entry.Daemon), entry)
		case ModeHost:
			table.add(opts.Filter.Apply(entry.Host), entry)
		case ModeWords:
			for _, token := range Tokenize(entry.Message) {
				if opts.Filter.Bleach(token) {
					continue
				}
				table.add(token, entry)
			}
		default:
			table.add(opts.Filter.Apply(entry.Message), entry)
		}
	}
	table.sort()

	return table
}

// add counts one occurrence of key
func (t *Table) add(key string, entry *common.LogEntry) {
	record, ok := t.Lookup(key)
	if !ok {
		record = &PatternRecord{
			Key:       key,
			FirstSeen: entry.Timestamp,
			Order:     len(t.Records),
		}
		t.index[key] = record
		t.Records = append(t.Records, record)
	}

	record.Count++
	t.Total++

	if !entry.Timestamp.IsZero() {
		if record.FirstSeen.IsZero() || entry.Timestamp.Before(record.FirstSeen) {
			record.FirstSeen = entry.Timestamp
		}
		if entry.Timestamp.After(record.LastSeen) {
			record.LastSeen = entry.Timestamp
		}
	}

	switch t.Sampling {
	case SamplingAll:
		record.Samples = append(record.Samples, entry.Source())
	case SamplingThreshold:
		// once the count passes the threshold the samples are frozen
		if record.Count <= t.Threshold {
			record.Samples = append(record.Samples, entry.Source())
		}
	}
}

func (t *Table) sort() {
	sort.SliceStable(t.Records, func(i, j int) bool {
		if t.Records[i].Count != t.Records[j].Count {
			return t.Records[i].Count > t.Records[j].Count
		}
		return t.Records[i].Order < t.Records[j].Order
	})
}

// Len returns the number of distinct patterns
func (t *Table) Len() int {
	return len(t.Records)
}

// Lookup finds the record for a key
func (t *Table) Lookup(key string) (*PatternRecord, bool) {
	record, ok := t.index[key]
	return record, ok
}

// Display returns the lines to print for a record: its samples when the
// pattern is rare or every sample was requested, otherwise its key.
func (t *Table) Display(record *PatternRecord) []string {
	switch t.Sampling {
	case SamplingAll:
		if len(record.Samples) > 0 {
			return record.Samples
		}
	case SamplingThreshold:
		if record.Count <= t.Threshold && len(record.Samples) > 0 {
			return record.Samples
		}
	}
	return []string{record.Key}
}

// Tokenize splits a message into words on whitespace and punctuation.
// Underscores and hyphens stay inside words.
func Tokenize(message string) []string {
	return strings.FieldsFunc(message, func(r rune) bool {
		if r == '_' || r == '-' {
			return false
		}
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
