package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sanspareilsmyn/momentlens/internal/measure"
)

// labelColumns is how many cells after the first are scanned in the title row
// for the dataset label.
const labelColumns = 12

// ReadCSV parses a per-video dataset. The first row carries the display label,
// the second row the column headers (time first), and every later row one
// sample. Rows whose time cell does not parse are skipped; unparsable measure
// cells become NaN.
func ReadCSV(r io.Reader, videoID string) (*TimeSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	title, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrEmptySeries, videoID)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedDataset, err)
	}
	label := labelFromTitle(title)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrEmptySeries, videoID)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedDataset, err)
	}

	positions := make(map[int]measure.Measure)
	for i := 1; i < len(header); i++ {
		m, ok := measure.Parse(strings.TrimSpace(header[i]))
		if !ok {
			continue
		}
		if _, dup := findPosition(positions, m); dup {
			continue
		}
		positions[i] = m
	}

	var times []float64
	columns := make(map[measure.Measure][]float64, len(positions))
	for _, m := range positions {
		columns[m] = nil
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDataset, err)
		}
		if len(record) == 0 {
			continue
		}
		t, ok := parseCell(record[0])
		if !ok {
			continue
		}
		times = append(times, t)
		for pos, m := range positions {
			v := math.NaN()
			if pos < len(record) {
				if parsed, ok := parseCell(record[pos]); ok {
					v = parsed
				}
			}
			columns[m] = append(columns[m], v)
		}
	}

	return New(videoID, label, times, columns)
}

// labelFromTitle returns the first non-empty cell among columns 1..12.
func labelFromTitle(title []string) string {
	for i := 1; i <= labelColumns && i < len(title); i++ {
		if cell := strings.TrimSpace(title[i]); cell != "" {
			return cell
		}
	}
	return DefaultLabel
}

func findPosition(positions map[int]measure.Measure, m measure.Measure) (int, bool) {
	for pos, pm := range positions {
		if pm == m {
			return pos, true
		}
	}
	return 0, false
}

func parseCell(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// WriteCSV writes s in the layout ReadCSV accepts.
func WriteCSV(w io.Writer, s *TimeSeries) error {
	cw := csv.NewWriter(w)

	measures := s.Measures()
	title := make([]string, len(measures)+1)
	if len(title) > 1 {
		title[1] = s.Label
	}
	header := make([]string, 0, len(measures)+1)
	header = append(header, "Time")
	for _, m := range measures {
		header = append(header, string(m))
	}
	if err := cw.Write(title); err != nil {
		return err
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, t := range s.Times {
		row[0] = strconv.FormatFloat(t, 'f', -1, 64)
		for j, m := range measures {
			col, _ := s.Column(m)
			if math.IsNaN(col[i]) {
				row[j+1] = ""
				continue
			}
			row[j+1] = strconv.FormatFloat(col[i], 'f', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
