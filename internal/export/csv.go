// Package export serializes batch predictions to CSV and delivers the result
// to one or more sinks.
package export

import (
	"strings"

	"github.com/Veraticus/bounce-back/internal/model"
)

// Download surface of a finished batch.
const (
	Filename    = "Results.csv"
	ContentType = "text/csv"
)

// ToCSV renders records as comma-separated text. The header is the key order
// of the first record and every row is written in that order. Values are not
// quoted and the output has no trailing newline.
func ToCSV(records []model.Record) string {
	if len(records) == 0 {
		return ""
	}

	headers := model.Columns(records)

	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))

	values := make([]string, len(headers))
	for _, r := range records {
		for i, h := range headers {
			values[i] = r.Text(h)
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(values, ","))
	}

	return b.String()
}
