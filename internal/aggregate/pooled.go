package aggregate

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/measure"
	"github.com/sanspareilsmyn/momentlens/internal/moment"
	"github.com/sanspareilsmyn/momentlens/internal/series"
)

// PooledResult holds every in-window sample per measure across segments.
// Values are sorted ascending so the result does not depend on moment order.
type PooledResult struct {
	Measures     []measure.Measure
	Values       map[measure.Measure][]float64
	Stats        map[measure.Measure]Stats
	Segments     int
	PureDuration float64
	Skipped      []Drop
}

// Mode implements Result.
func (r *PooledResult) Mode() Mode { return ModeBox }

// MaxSamples is the length of the largest pooled sample.
func (r *PooledResult) MaxSamples() int {
	longest := 0
	for _, vs := range r.Values {
		if len(vs) > longest {
			longest = len(vs)
		}
	}
	return longest
}

// SkippedLabels returns labels of moments that contributed nothing.
func (r *PooledResult) SkippedLabels() []string { return labels(r.Skipped) }

// Pool concatenates the samples of every non-empty segment per measure and
// describes them. NaN cells are not samples. Measures with no samples are
// omitted. ErrNoData is returned when nothing remains.
func Pool(segments []series.Segment) (*PooledResult, error) {
	values := make(map[measure.Measure][]float64)
	used := 0
	for _, seg := range segments {
		if seg.Empty() {
			continue
		}
		used++
		for _, m := range seg.Measures() {
			col, _ := seg.Column(m)
			for _, v := range col {
				if !math.IsNaN(v) {
					values[m] = append(values[m], v)
				}
			}
		}
	}

	present := make(map[measure.Measure]bool, len(values))
	for m, vs := range values {
		if len(vs) == 0 {
			continue
		}
		sort.Float64s(vs)
		present[m] = true
	}
	if used == 0 || len(present) == 0 {
		return nil, ErrNoData
	}

	res := &PooledResult{
		Measures: measure.Ordered(present),
		Values:   make(map[measure.Measure][]float64, len(present)),
		Stats:    make(map[measure.Measure]Stats, len(present)),
		Segments: used,
	}
	for _, m := range res.Measures {
		res.Values[m] = values[m]
		res.Stats[m] = Describe(values[m])
	}
	return res, nil
}

// Pooler builds box-mode aggregates from a Store.
type Pooler struct {
	store  series.Store
	opts   Options
	logger *zap.Logger
}

// NewPooler creates a Pooler.
func NewPooler(store series.Store, opts Options, logger *zap.Logger) *Pooler {
	return &Pooler{store: store, opts: opts, logger: logger.Named("pooler")}
}

// Aggregate extracts [start, end] of every moment and pools the samples.
func (p *Pooler) Aggregate(ctx context.Context, moments []moment.Moment) (*PooledResult, error) {
	if len(moments) == 0 {
		return nil, ErrNoMoments
	}

	items, err := loadAll(ctx, p.store, moments, p.opts.concurrency(), p.logger)
	if err != nil {
		return nil, err
	}

	var (
		segments []series.Segment
		skipped  []Drop
	)
	for _, it := range items {
		if it.drop != nil {
			skipped = append(skipped, *it.drop)
			continue
		}
		seg := series.Extract(it.series, it.moment.Start, it.moment.End)
		if seg.Empty() {
			skipped = append(skipped, Drop{Moment: it.moment, Reason: ReasonEmptySegment})
			continue
		}
		segments = append(segments, seg)
	}

	res, err := Pool(segments)
	if err != nil {
		p.logger.Info("No samples to pool",
			zap.Int("moments", len(moments)),
			zap.Int("skipped", len(skipped)),
		)
		return nil, err
	}
	res.PureDuration = moment.PureDuration(moments)
	res.Skipped = skipped

	p.logger.Debug("Pooled moments",
		zap.Int("moments", len(moments)),
		zap.Int("segments", res.Segments),
		zap.Int("skipped", len(skipped)),
		zap.Int("measures", len(res.Measures)),
	)
	return res, nil
}
