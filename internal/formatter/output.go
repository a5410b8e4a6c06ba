package formatter

import (
	"time"

	"github.com/yildizm/glancelog/internal/analyzer"
)

// Output is the structured form of a report shared by the json and msgpack
// encoders
type Output struct {
	RunID    string           `json:"run_id" msgpack:"run_id"`
	Summary  *SummaryOutput   `json:"summary" msgpack:"summary"`
	Patterns []*PatternOutput `json:"patterns,omitempty" msgpack:"patterns,omitempty"`
	Graph    *GraphOutput     `json:"graph,omitempty" msgpack:"graph,omitempty"`
}

// SummaryOutput represents the summary section
type SummaryOutput struct {
	Source      string     `json:"source" msgpack:"source"`
	Format      string     `json:"format" msgpack:"format"`
	Mode        string     `json:"mode" msgpack:"mode"`
	Entries     int        `json:"entries" msgpack:"entries"`
	Malformed   int        `json:"malformed" msgpack:"malformed"`
	Filter      string     `json:"filter,omitempty" msgpack:"filter,omitempty"`
	GeneratedAt time.Time  `json:"generated_at" msgpack:"generated_at"`
	TimeRange   *TimeRange `json:"time_range,omitempty" msgpack:"time_range,omitempty"`
}

// TimeRange represents a time range
type TimeRange struct {
	Start    time.Time `json:"start" msgpack:"start"`
	End      time.Time `json:"end" msgpack:"end"`
	Duration string    `json:"duration" msgpack:"duration"`
}

// PatternOutput is one pattern record with the lines it displays as
type PatternOutput struct {
	Key       string     `json:"key" msgpack:"key"`
	Count     int        `json:"count" msgpack:"count"`
	Samples   []string   `json:"samples,omitempty" msgpack:"samples,omitempty"`
	Display   []string   `json:"display" msgpack:"display"`
	FirstSeen *time.Time `json:"first_seen,omitempty" msgpack:"first_seen,omitempty"`
	LastSeen  *time.Time `json:"last_seen,omitempty" msgpack:"last_seen,omitempty"`
}

// GraphOutput is a bucket series with its summary
type GraphOutput struct {
	Unit    string               `json:"unit" msgpack:"unit"`
	Start   time.Time            `json:"start" msgpack:"start"`
	End     time.Time            `json:"end" msgpack:"end"`
	Total   int                  `json:"total" msgpack:"total"`
	Min     int                  `json:"min" msgpack:"min"`
	Max     int                  `json:"max" msgpack:"max"`
	Trend   string               `json:"trend" msgpack:"trend"`
	Buckets []analyzer.Bucket    `json:"buckets" msgpack:"buckets"`
	Stats   analyzer.SeriesStats `json:"-" msgpack:"-"`
}

// BuildOutput converts a report into its structured form
func BuildOutput(report *Report) *Output {
	output := &Output{
		RunID:   report.RunID,
		Summary: createSummary(report),
	}

	if report.Patterns != nil {
		output.Patterns = createPatternOutputs(report.Patterns)
	}
	if report.Series != nil {
		output.Graph = createGraphOutput(report.Series, report.Graph.Width)
	}

	return output
}

func createSummary(report *Report) *SummaryOutput {
	summary := &SummaryOutput{
		Source:      report.Source,
		Format:      string(report.Format),
		Mode:        report.Mode,
		Entries:     report.Entries,
		Malformed:   report.Malformed,
		Filter:      report.FilterSource,
		GeneratedAt: report.GeneratedAt,
	}

	if !report.Start.IsZero() && !report.End.IsZero() {
		summary.TimeRange = &TimeRange{
			Start:    report.Start,
			End:      report.End,
			Duration: report.End.Sub(report.Start).String(),
		}
	}

	return summary
}

func createPatternOutputs(table *analyzer.Table) []*PatternOutput {
	outputs := make([]*PatternOutput, 0, table.Len())

	for _, record := range table.Records {
		output := &PatternOutput{
			Key:     record.Key,
			Count:   record.Count,
			Samples: record.Samples,
			Display: table.Display(record),
		}
		if !record.FirstSeen.IsZero() {
			first := record.FirstSeen
			output.FirstSeen = &first
		}
		if !record.LastSeen.IsZero() {
			last := record.LastSeen
			output.LastSeen = &last
		}
		outputs = append(outputs, output)
	}

	return outputs
}

func createGraphOutput(series *analyzer.Series, width int) *GraphOutput {
	stats := series.Stats(width)
	return &GraphOutput{
		Unit:    string(series.Unit),
		Start:   series.Start,
		End:     series.End,
		Total:   series.Total,
		Min:     series.Min,
		Max:     series.Max,
		Trend:   stats.Trend,
		Buckets: series.Buckets,
		Stats:   stats,
	}
}
