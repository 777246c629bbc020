package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/sanspareilsmyn/momentlens/internal/measure"
	"github.com/sanspareilsmyn/momentlens/internal/series"
)

// Store implements series.Store on the videos and measure_samples tables.
// Samples are stored long: one row per (video, time, measure).
type Store struct {
	conn *Conn
}

// Compile-time interface check.
var _ series.Store = (*Store)(nil)

// NewStore creates a Store.
func NewStore(conn *Conn) *Store {
	return &Store{conn: conn}
}

// Load implements series.Store.
func (s *Store) Load(ctx context.Context, videoID string) (*series.TimeSeries, error) {
	if err := series.ValidateVideoID(videoID); err != nil {
		return nil, err
	}

	var label string
	err := s.conn.QueryRow(ctx, `
		SELECT label FROM videos FINAL
		WHERE video_id = ?
		LIMIT 1
	`, videoID).Scan(&label)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", series.ErrNotFound, videoID)
		}
		return nil, fmt.Errorf("query label: %w", err)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT t, measure, value
		FROM measure_samples
		WHERE video_id = ?
		ORDER BY t ASC
	`, videoID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var (
		times   []float64
		columns = make(map[measure.Measure][]float64)
	)
	for rows.Next() {
		var (
			t     float64
			name  string
			value *float64
		)
		if err := rows.Scan(&t, &name, &value); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		m, ok := measure.Parse(name)
		if !ok {
			continue
		}
		if len(times) == 0 || times[len(times)-1] != t {
			times = append(times, t)
			for cm, col := range columns {
				columns[cm] = append(col, math.NaN())
			}
		}
		col, ok := columns[m]
		if !ok {
			col = make([]float64, len(times))
			for i := range col {
				col[i] = math.NaN()
			}
		}
		if value != nil {
			col[len(times)-1] = *value
		}
		columns[m] = col
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}

	if len(times) == 0 {
		return nil, fmt.Errorf("%w: %s", series.ErrNotFound, videoID)
	}
	return series.New(videoID, label, times, columns)
}

// Insert writes a dataset. Missing cells are stored as NULL.
func (s *Store) Insert(ctx context.Context, ts *series.TimeSeries) error {
	if err := s.conn.Exec(ctx, `INSERT INTO videos (video_id, label) VALUES (?, ?)`, ts.VideoID, ts.Label); err != nil {
		return fmt.Errorf("insert video: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO measure_samples (video_id, t, measure, value)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	measures := ts.Measures()
	for i, t := range ts.Times {
		for _, m := range measures {
			col, _ := ts.Column(m)
			var value *float64
			if !math.IsNaN(col[i]) {
				v := col[i]
				value = &v
			}
			if err := batch.Append(ts.VideoID, t, string(m), value); err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
