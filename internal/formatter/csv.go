package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
)

// csvFormatter writes pattern records or graph buckets as CSV rows
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) Format(report *Report) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	var rows [][]string
	switch {
	case report.Series != nil:
		rows = append(rows, []string{"Start", "End", "Count"})
		for _, bucket := range report.Series.Buckets {
			rows = append(rows, []string{
				formatCSVTime(bucket.Start),
				formatCSVTime(bucket.End),
				fmt.Sprintf("%d", bucket.Count),
			})
		}
	case report.Patterns != nil:
		rows = append(rows, []string{"Count", "Pattern", "First Seen", "Last Seen", "Sample"})
		for _, record := range report.Patterns.Records {
			sample := ""
			if len(record.Samples) > 0 {
				sample = escapeCSVString(record.Samples[0])
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", record.Count),
				escapeCSVString(record.Key),
				formatCSVTime(record.FirstSeen),
				formatCSVTime(record.LastSeen),
				sample,
			})
		}
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return b.Bytes(), nil
}

// formatCSVTime formats time for CSV output
func formatCSVTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

// escapeCSVString flattens line breaks; quoting is left to encoding/csv
func escapeCSVString(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
