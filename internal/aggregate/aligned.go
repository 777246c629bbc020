package aggregate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/measure"
	"github.com/sanspareilsmyn/momentlens/internal/moment"
	"github.com/sanspareilsmyn/momentlens/internal/series"
)

// GridPoints is the number of evenly spaced relative times in a line aggregate.
const GridPoints = 100

// Policy decides what an aligned curve holds at grid times outside the
// segment's sampled range.
type Policy string

const (
	// PolicyClamp repeats the nearest edge sample.
	PolicyClamp Policy = "clamp"
	// PolicyNaN leaves the point undefined so it does not enter the average.
	PolicyNaN Policy = "nan"
)

// ParsePolicy accepts "clamp" or "nan". An empty string is clamp.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyClamp:
		return PolicyClamp, nil
	case PolicyNaN:
		return PolicyNaN, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// AlignedResult holds per-measure mean curves on a shared relative-time grid.
// Grid runs from -PreDuration to PureDuration+PostExtra. Curve points with no
// contributing segment are NaN.
type AlignedResult struct {
	Grid         []float64
	Curves       map[measure.Measure][]float64
	Measures     []measure.Measure
	PreDuration  float64
	PostExtra    float64
	PureDuration float64
	Included     int
	Excluded     []Drop
	Skipped      []Drop
}

// Mode implements Result.
func (r *AlignedResult) Mode() Mode { return ModeLine }

// EffectivePost is the grid end: the pure duration plus the post padding.
func (r *AlignedResult) EffectivePost() float64 { return r.PureDuration + r.PostExtra }

// ExcludedLabels returns labels of moments rejected for insufficient coverage.
func (r *AlignedResult) ExcludedLabels() []string { return labels(r.Excluded) }

// SkippedLabels returns labels of moments that contributed nothing.
func (r *AlignedResult) SkippedLabels() []string { return labels(r.Skipped) }

// Curve returns the averaged curve of m.
func (r *AlignedResult) Curve(m measure.Measure) ([]float64, bool) {
	c, ok := r.Curves[m]
	return c, ok
}

// At evaluates the curve of m at relative time t by linear interpolation
// between grid points.
func (r *AlignedResult) At(m measure.Measure, t float64) (float64, bool) {
	c, ok := r.Curves[m]
	if !ok {
		return math.NaN(), false
	}
	xs, ys := finitePairs(r.Grid, c)
	if len(xs) == 0 {
		return math.NaN(), false
	}
	v := interpolate([]float64{t}, xs, ys, PolicyClamp)[0]
	return v, true
}

// GridMillis returns grid times in integer milliseconds, truncated toward zero.
func (r *AlignedResult) GridMillis() []int64 {
	out := make([]int64, len(r.Grid))
	for i, t := range r.Grid {
		out[i] = int64(t * 1000)
	}
	return out
}

// Aligner builds line-mode aggregates from a Store.
type Aligner struct {
	store  series.Store
	opts   Options
	logger *zap.Logger
}

// NewAligner creates an Aligner. An empty policy means PolicyClamp.
func NewAligner(store series.Store, opts Options, logger *zap.Logger) *Aligner {
	if opts.Policy == "" {
		opts.Policy = PolicyClamp
	}
	return &Aligner{store: store, opts: opts, logger: logger.Named("aligner")}
}

// Aggregate rebases each moment onto time relative to its start, resamples
// every measure onto a shared grid over [-pre, pure+post] and averages the
// resampled curves point by point. When pre or post is positive, moments
// whose dataset does not cover the padded window are excluded.
func (a *Aligner) Aggregate(ctx context.Context, moments []moment.Moment, pre, post float64) (*AlignedResult, error) {
	if len(moments) == 0 {
		return nil, ErrNoMoments
	}
	if !validPadding(pre) || !validPadding(post) {
		return nil, ErrInvalidWindow
	}

	items, err := loadAll(ctx, a.store, moments, a.opts.concurrency(), a.logger)
	if err != nil {
		return nil, err
	}

	pure := moment.PureDuration(moments)
	effPost := pure + post
	gridStart := -pre
	if gridStart == 0 {
		gridStart = 0 // no negative zero in exported times
	}
	grid := Linspace(gridStart, effPost, GridPoints)
	checkCoverage := pre > 0 || post > 0

	res := &AlignedResult{
		Grid:         grid,
		PreDuration:  pre,
		PostExtra:    post,
		PureDuration: pure,
	}
	acc := make(map[measure.Measure]*accumulator)

	for _, it := range items {
		if it.drop != nil {
			res.Skipped = append(res.Skipped, *it.drop)
			continue
		}
		m, ts := it.moment, it.series
		windowStart := m.Start - pre
		windowEnd := m.Start + effPost

		if checkCoverage && !covers(ts, windowStart, windowEnd) {
			a.logger.Debug("Excluding moment with insufficient coverage",
				zap.String("video_id", m.VideoID),
				zap.Float64("window_start", windowStart),
				zap.Float64("window_end", windowEnd),
				zap.Float64("available_start", ts.MinTime()),
				zap.Float64("available_end", ts.MaxTime()),
			)
			res.Excluded = append(res.Excluded, Drop{
				Moment: m,
				Reason: ReasonNoCoverage,
				Detail: fmt.Sprintf("needs [%g, %g], has [%g, %g]", windowStart, windowEnd, ts.MinTime(), ts.MaxTime()),
			})
			continue
		}

		seg := series.Extract(ts, windowStart, windowEnd)
		if !accumulate(acc, seg, m.Start, grid, a.opts.Policy) {
			res.Skipped = append(res.Skipped, Drop{Moment: m, Reason: ReasonEmptySegment})
			continue
		}
		res.Included++
	}

	if res.Included == 0 {
		a.logger.Info("No moment contributed to the aligned aggregate",
			zap.Int("moments", len(moments)),
			zap.Int("excluded", len(res.Excluded)),
			zap.Int("skipped", len(res.Skipped)),
		)
		return nil, fmt.Errorf("%w: %d excluded, %d skipped", ErrNoData, len(res.Excluded), len(res.Skipped))
	}

	present := make(map[measure.Measure]bool, len(acc))
	res.Curves = make(map[measure.Measure][]float64, len(acc))
	for m, ac := range acc {
		present[m] = true
		res.Curves[m] = ac.mean()
	}
	res.Measures = measure.Ordered(present)

	a.logger.Debug("Aligned moments",
		zap.Int("moments", len(moments)),
		zap.Int("included", res.Included),
		zap.Int("excluded", len(res.Excluded)),
		zap.Float64("pure_duration", pure),
	)
	return res, nil
}

func validPadding(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// covers reports whether ts spans [start, end], allowing series.EndTolerance
// of slack on either side.
func covers(ts *series.TimeSeries, start, end float64) bool {
	lo, hi := ts.MinTime(), ts.MaxTime()
	return (start >= lo || series.WithinTolerance(start, lo)) &&
		(end <= hi || series.WithinTolerance(end, hi))
}

// accumulator sums resampled curves per grid point, counting contributions
// so undefined points do not dilute the mean.
type accumulator struct {
	sum []float64
	n   []int
}

func (ac *accumulator) add(curve []float64) {
	for i, v := range curve {
		if math.IsNaN(v) {
			continue
		}
		ac.sum[i] += v
		ac.n[i]++
	}
}

func (ac *accumulator) mean() []float64 {
	out := make([]float64, len(ac.sum))
	for i := range out {
		if ac.n[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = ac.sum[i] / float64(ac.n[i])
	}
	return out
}

// accumulate resamples every measure of seg onto grid after rebasing time on
// origin. It reports whether any measure had a finite sample.
func accumulate(acc map[measure.Measure]*accumulator, seg series.Segment, origin float64, grid []float64, policy Policy) bool {
	if seg.Empty() {
		return false
	}
	rel := make([]float64, seg.Len())
	for i, t := range seg.Times() {
		rel[i] = t - origin
	}

	contributed := false
	for _, m := range seg.Measures() {
		col, _ := seg.Column(m)
		xs, ys := finitePairs(rel, col)
		if len(xs) == 0 {
			continue
		}
		ac, ok := acc[m]
		if !ok {
			ac = &accumulator{sum: make([]float64, len(grid)), n: make([]int, len(grid))}
			acc[m] = ac
		}
		ac.add(interpolate(grid, xs, ys, policy))
		contributed = true
	}
	return contributed
}

// finitePairs drops positions where y is NaN.
func finitePairs(xs, ys []float64) ([]float64, []float64) {
	outX := make([]float64, 0, len(xs))
	outY := make([]float64, 0, len(ys))
	for i := range xs {
		if math.IsNaN(ys[i]) {
			continue
		}
		outX = append(outX, xs[i])
		outY = append(outY, ys[i])
	}
	return outX, outY
}

// Linspace returns n evenly spaced values over [start, stop]. The last value
// is exactly stop.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

// interpolate evaluates the piecewise-linear function through (xs, ys) at
// each of at. xs must be ascending and non-empty. Outside [xs[0], xs[n-1]]
// the policy applies.
func interpolate(at, xs, ys []float64, policy Policy) []float64 {
	n := len(xs)
	out := make([]float64, len(at))
	for i, x := range at {
		switch {
		case x < xs[0]:
			out[i] = edge(ys[0], policy)
		case x > xs[n-1]:
			out[i] = edge(ys[n-1], policy)
		default:
			j := sort.SearchFloat64s(xs, x)
			if xs[j] == x || j == 0 {
				out[i] = ys[j]
				continue
			}
			x0, x1 := xs[j-1], xs[j]
			y0, y1 := ys[j-1], ys[j]
			out[i] = y0 + (y1-y0)*(x-x0)/(x1-x0)
		}
	}
	return out
}

func edge(v float64, policy Policy) float64 {
	if policy == PolicyNaN {
		return math.NaN()
	}
	return v
}
