package common

import "time"

// Log owns the ordered entries produced by a single parse pass
type Log struct {
	Entries []*LogEntry `json:"entries"`
	Format  Format      `json:"format"`
	Total   int         `json:"total"`
}

// NewLog creates a container for entries of one dialect
func NewLog(format Format, entries []*LogEntry) *Log {
	return &Log{
		Entries: entries,
		Format:  format,
		Total:   len(entries),
	}
}

// FilterByTime returns a new container holding only entries with
// from <= timestamp <= to. A nil bound is open.
func (l *Log) FilterByTime(from, to *time.Time) *Log {
	if from == nil && to == nil {
		entries := make([]*LogEntry, len(l.Entries))
		copy(entries, l.Entries)
		return NewLog(l.Format, entries)
	}

	entries := make([]*LogEntry, 0, len(l.Entries))
	for _, entry := range l.Entries {
		if from != nil && entry.Timestamp.Before(*from) {
			continue
		}
		if to != nil && entry.Timestamp.After(*to) {
			continue
		}
		entries = append(entries, entry)
	}

	return NewLog(l.Format, entries)
}

// Span returns the earliest and latest non-zero timestamps in the container
func (l *Log) Span() (first, last time.Time) {
	for _, entry := range l.Entries {
		ts := entry.Timestamp
		if ts.IsZero() {
			continue
		}
		if first.IsZero() || ts.Before(first) {
			first = ts
		}
		if last.IsZero() || ts.After(last) {
			last = ts
		}
	}
	return first, last
}

// Len returns the number of entries
func (l *Log) Len() int {
	return len(l.Entries)
}
