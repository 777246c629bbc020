// Package report renders aggregates as CSV exports and chart series.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/sanspareilsmyn/momentlens/internal/aggregate"
	"github.com/sanspareilsmyn/momentlens/internal/measure"
)

const (
	colQuery   = "Query"
	colMeasure = "Measure"
	colTimeMs  = "Time(ms)"
)

// WriteCSV writes res in the layout of its mode.
func WriteCSV(w io.Writer, res aggregate.Result, query string) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	var err error
	switch r := res.(type) {
	case *aggregate.PooledResult:
		err = writePooled(cw, r, query)
	case *aggregate.AlignedResult:
		err = writeAligned(cw, r, query)
	default:
		err = fmt.Errorf("%w: %T", ErrUnsupportedResult, res)
	}
	if err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// CSV returns the export of res as bytes.
func CSV(res aggregate.Result, query string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, res, query); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writePooled emits one row per measure holding every pooled value. Rows are
// padded to the largest sample.
func writePooled(cw *csv.Writer, r *aggregate.PooledResult, query string) error {
	width := r.MaxSamples()

	header := make([]string, 0, width+2)
	header = append(header, colQuery, colMeasure)
	for i := 1; i <= width; i++ {
		header = append(header, "Value_"+strconv.Itoa(i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, m := range r.Measures {
		row := make([]string, width+2)
		row[0] = query
		row[1] = string(m)
		for i, v := range r.Values[m] {
			row[i+2] = formatValue(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeAligned emits one row per grid point with a column for every
// canonical measure. Cells of absent measures are empty.
func writeAligned(cw *csv.Writer, r *aggregate.AlignedResult, query string) error {
	measures := measure.All()

	header := make([]string, 0, len(measures)+2)
	header = append(header, colQuery, colTimeMs)
	header = append(header, measure.Strings()...)
	if err := cw.Write(header); err != nil {
		return err
	}

	millis := r.GridMillis()
	row := make([]string, len(header))
	for i := range r.Grid {
		row[0] = query
		row[1] = strconv.FormatInt(millis[i], 10)
		for j, m := range measures {
			row[j+2] = ""
			if curve, ok := r.Curve(m); ok {
				row[j+2] = formatValue(curve[i])
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
