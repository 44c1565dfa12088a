package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteCSV writes the Portfolio table as CSV. Unavailable values are empty cells.
func WriteCSV(w io.Writer, r *Report) error {
	cols := portfolioColumns(r.Reporting())
	cw := csv.NewWriter(w)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.header
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(cols))
	for i := range r.Batch.Securities {
		m := &r.Batch.Securities[i]
		for j, c := range cols {
			record[j] = csvValue(c.value(m))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.DateOnly)
	default:
		return ""
	}
}
