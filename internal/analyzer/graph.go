package analyzer

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yildizm/glancelog/internal/common"
)

// Unit is the width of one graph bucket
type Unit string

const (
	UnitSecond Unit = "second"
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
	UnitMonth  Unit = "month"
	UnitYear   Unit = "year"
)

// Units lists every granularity from finest to coarsest
var Units = []Unit{UnitSecond, UnitMinute, UnitHour, UnitDay, UnitMonth, UnitYear}

// ParseUnit converts a unit name or its short alias
func ParseUnit(name string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "s", "sec", "second", "seconds":
		return UnitSecond, nil
	case "", "m", "min", "minute", "minutes":
		return UnitMinute, nil
	case "h", "hour", "hours":
		return UnitHour, nil
	case "d", "day", "days":
		return UnitDay, nil
	case "mo", "month", "months":
		return UnitMonth, nil
	case "y", "year", "years":
		return UnitYear, nil
	default:
		return "", fmt.Errorf("unknown graph unit: %s", name)
	}
}

// Duration is the fixed bucket length. Months are 30 days and years 365 days
// so that bucket arithmetic stays linear.
func (u Unit) Duration() time.Duration {
	switch u {
	case UnitSecond:
		return time.Second
	case UnitHour:
		return time.Hour
	case UnitDay:
		return 24 * time.Hour
	case UnitMonth:
		return 30 * 24 * time.Hour
	case UnitYear:
		return 365 * 24 * time.Hour
	default:
		return time.Minute
	}
}

// DefaultSpan is the bucket count used when no end bound is given
func (u Unit) DefaultSpan() int {
	switch u {
	case UnitHour:
		return 24
	case UnitDay:
		return 31
	case UnitMonth:
		return 12
	case UnitYear:
		return 10
	default:
		return 60
	}
}

// Layout is the time layout for bucket labels
func (u Unit) Layout() string {
	switch u {
	case UnitSecond:
		return "2006-01-02 15:04:05"
	case UnitHour:
		return "2006-01-02 15:00"
	case UnitDay:
		return "2006-01-02"
	case UnitMonth:
		return "2006-01"
	case UnitYear:
		return "2006"
	default:
		return "2006-01-02 15:04"
	}
}

// MaxBuckets caps the length of a series built from explicit bounds
const MaxBuckets = 100000

// ErrTooManyBuckets is returned when a window would need more than MaxBuckets
// buckets of the requested unit
var ErrTooManyBuckets = errors.New("too many graph buckets")

// Bucket is one fixed-width slot of the series
type Bucket struct {
	Start time.Time `json:"start" msgpack:"start"`
	End   time.Time `json:"end" msgpack:"end"`
	Count int       `json:"count" msgpack:"count"`
}

// Series is a run of equally sized buckets
type Series struct {
	Unit    Unit      `json:"unit" msgpack:"unit"`
	Start   time.Time `json:"start" msgpack:"start"`
	End     time.Time `json:"end" msgpack:"end"`
	Buckets []Bucket  `json:"buckets" msgpack:"buckets"`
	Total   int       `json:"total" msgpack:"total"`
	Min     int       `json:"min" msgpack:"min"`
	Max     int       `json:"max" msgpack:"max"`
}

// BuildSeries counts entries per bucket. The window starts at from, or at
// the first timestamped entry. With to it covers ceil((to-start)/unit)
// buckets, otherwise the unit's default span. Entries outside the window
// are not counted. A window wider than MaxBuckets buckets fails with
// ErrTooManyBuckets.
func BuildSeries(entries []*common.LogEntry, unit Unit, from, to *time.Time) (*Series, error) {
	if unit == "" {
		unit = UnitMinute
	}
	series := &Series{Unit: unit, Buckets: []Bucket{}}
	step := unit.Duration()

	var start time.Time
	switch {
	case from != nil:
		start = *from
	default:
		first, ok := firstTimestamp(entries)
		if !ok {
			return series, nil
		}
		start = first
	}

	count := unit.DefaultSpan()
	if to != nil {
		var err error
		if count, err = bucketCount(unit, start, *to); err != nil {
			return nil, err
		}
	}

	series.Start = start
	series.End = start.Add(time.Duration(count) * step)
	series.Buckets = make([]Bucket, count)
	for i := range series.Buckets {
		series.Buckets[i] = Bucket{
			Start: start.Add(time.Duration(i) * step),
			End:   start.Add(time.Duration(i+1) * step),
		}
	}

	for _, entry := range entries {
		if entry.Timestamp.Before(start) {
			continue
		}
		index := int(entry.Timestamp.Sub(start) / step)
		if index >= count {
			continue
		}
		series.Buckets[index].Count++
		series.Total++
	}

	series.Min, series.Max = series.Buckets[0].Count, series.Buckets[0].Count
	for _, bucket := range series.Buckets[1:] {
		if bucket.Count < series.Min {
			series.Min = bucket.Count
		}
		if bucket.Count > series.Max {
			series.Max = bucket.Count
		}
	}

	return series, nil
}

// bucketCount is ceil((to-start)/unit), at least 1 and at most MaxBuckets
func bucketCount(unit Unit, start, to time.Time) (int, error) {
	step := unit.Duration()
	span := to.Sub(start)
	buckets := math.Ceil(float64(span) / float64(step))

	// Sub saturates, so a span at the limit means the real one is wider
	if span == time.Duration(math.MaxInt64) || buckets > MaxBuckets || buckets*float64(step) >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %s to %s in %s buckets exceeds %d, use a coarser unit",
			ErrTooManyBuckets, start.Format(unit.Layout()), to.Format(unit.Layout()), unit, MaxBuckets)
	}
	if buckets < 1 {
		return 1, nil
	}
	return int(buckets), nil
}

func firstTimestamp(entries []*common.LogEntry) (time.Time, bool) {
	for _, entry := range entries {
		if !entry.Timestamp.IsZero() {
			return entry.Timestamp, true
		}
	}
	return time.Time{}, false
}

// Len returns the number of buckets
func (s *Series) Len() int {
	return len(s.Buckets)
}

// SeriesStats summarizes a series for display
type SeriesStats struct {
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	Duration      time.Duration `json:"duration"`
	Min           int           `json:"min"`
	Max           int           `json:"max"`
	Total         int           `json:"total"`
	ActiveBuckets int           `json:"active_buckets"`
	PeakTime      time.Time     `json:"peak_time"`
	Average       float64       `json:"average"`
	Scale         float64       `json:"scale"` // entries per tick
	Trend         string        `json:"trend"`
}

// Stats summarizes the series for a bar width
func (s *Series) Stats(width int) SeriesStats {
	if width <= 0 {
		width = DefaultWidth
	}
	stats := SeriesStats{
		Start:    s.Start,
		End:      s.End,
		Duration: s.End.Sub(s.Start),
		Min:      s.Min,
		Max:      s.Max,
		Total:    s.Total,
		Trend:    s.Trend(),
	}
	if len(s.Buckets) == 0 {
		return stats
	}

	peak := -1
	for _, bucket := range s.Buckets {
		if bucket.Count > 0 {
			stats.ActiveBuckets++
		}
		if bucket.Count > peak {
			peak = bucket.Count
			stats.PeakTime = bucket.Start
		}
	}
	stats.Average = float64(s.Total) / float64(len(s.Buckets))
	if s.Max > 0 {
		stats.Scale = float64(s.Max) / float64(width)
	}

	return stats
}

// Trend fits a least squares line through the bucket counts and reports
// "increasing", "decreasing" or "stable". Short or weakly correlated series
// are stable.
func (s *Series) Trend() string {
	n := len(s.Buckets)
	if n < 3 {
		return "stable"
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, bucket := range s.Buckets {
		x := float64(i)
		y := float64(bucket.Count)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	nf := float64(n)
	slope := (nf*sumXY - sumX*sumY) / (nf*sumXX - sumX*sumX)

	meanX, meanY := sumX/nf, sumY/nf
	var ssX, ssY, ssXY float64
	for i, bucket := range s.Buckets {
		dx := float64(i) - meanX
		dy := float64(bucket.Count) - meanY
		ssX += dx * dx
		ssY += dy * dy
		ssXY += dx * dy
	}
	if ssX == 0 || ssY == 0 {
		return "stable"
	}

	if r := math.Abs(ssXY / math.Sqrt(ssX*ssY)); r < 0.3 {
		return "stable"
	}
	switch {
	case slope > 0.1:
		return "increasing"
	case slope < -0.1:
		return "decreasing"
	default:
		return "stable"
	}
}

const (
	// DefaultWidth is the length of the longest bar
	DefaultWidth = 60
	// DefaultTick draws bars
	DefaultTick = "#"
)

// RenderOptions controls bar drawing
type RenderOptions struct {
	Tick  string
	Wide  bool
	Width int
}

// BarLength scales count against max onto width ticks, rounding up so any
// non-zero bucket stays visible
func BarLength(count, max, width int) int {
	if count <= 0 || max <= 0 || width <= 0 {
		return 0
	}
	return int(math.Ceil(float64(count) / float64(max) * float64(width)))
}

// Render draws one "label | bar count" row per bucket, zero buckets included
func Render(series *Series, opts RenderOptions) []string {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Tick == "" {
		opts.Tick = DefaultTick
	}
	glyph := opts.Tick
	if opts.Wide {
		glyph = opts.Tick + " "
	}
	glyphWidth := len([]rune(glyph))

	layout := series.Unit.Layout()
	rows := make([]string, 0, len(series.Buckets))
	for _, bucket := range series.Buckets {
		n := BarLength(bucket.Count, series.Max, opts.Width)
		bar := strings.Repeat(glyph, n)
		pad := strings.Repeat(" ", (opts.Width-n)*glyphWidth)
		rows = append(rows, fmt.Sprintf("%s | %s%s %d", bucket.Start.Format(layout), bar, pad, bucket.Count))
	}

	return rows
}
