package pipeline

import (
	"context"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/aggregate"
	"github.com/sanspareilsmyn/momentlens/internal/measure"
)

const defaultNamespace = "momentlens"

// Recorder turns aggregation outcomes into Prometheus metrics and stat logs.
type Recorder struct {
	aggregations *prometheus.CounterVec
	moments      *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	measureMean  *prometheus.GaugeVec
	measureStd   *prometheus.GaugeVec
	segments     *prometheus.CounterVec
	logger       *zap.Logger
}

// NewRecorder registers the aggregation metrics with reg.
func NewRecorder(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Recorder {
	if namespace == "" {
		namespace = defaultNamespace
	}
	factory := promauto.With(reg)

	r := &Recorder{
		aggregations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aggregations_total",
				Help:      "Total number of aggregation requests by mode and status.",
			},
			[]string{"mode", "status"},
		),
		moments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "moments_total",
				Help:      "Moments seen by aggregation requests, by how they were used.",
			},
			[]string{"mode", "outcome"}, // outcome: included, rejected, or a drop reason
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "aggregation_duration_seconds",
				Help:      "Time spent aggregating one request.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"mode"},
		),
		measureMean: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "measure_last_mean_value",
				Help:      "Mean of a measure in the last successful aggregation of each mode.",
			},
			[]string{"mode", "measure"},
		),
		measureStd: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "measure_last_stddev_value",
				Help:      "Sample standard deviation of a measure in the last pooled aggregation.",
			},
			[]string{"measure"},
		),
		segments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "segment_lookups_total",
				Help:      "Single-segment metric lookups by status.",
			},
			[]string{"status"},
		),
		logger: logger.Named("recorder"),
	}
	return r
}

// Run records every outcome received on input until ctx is done.
func (r *Recorder) Run(ctx context.Context, input <-chan Outcome) error {
	sugar := r.logger.Sugar()
	sugar.Info("Starting recorder loop...")
	defer sugar.Info("Recorder loop stopped.")

	for {
		select {
		case out, ok := <-input:
			if !ok {
				sugar.Info("Recorder input channel closed.")
				return nil
			}
			r.Record(out)

		case <-ctx.Done():
			sugar.Info("Context cancelled, stopping recorder.")
			return ctx.Err()
		}
	}
}

// Record updates metrics for one outcome.
func (r *Recorder) Record(out Outcome) {
	mode := string(out.Mode)
	if mode == "" {
		mode = "unknown"
	}

	r.aggregations.WithLabelValues(mode, out.status()).Inc()
	r.duration.WithLabelValues(mode).Observe(out.Duration.Seconds())

	if n := len(out.Rejected); n > 0 {
		r.moments.WithLabelValues(mode, "rejected").Add(float64(n))
	}
	if n := out.Included(); n > 0 {
		r.moments.WithLabelValues(mode, "included").Add(float64(n))
	}
	for _, d := range out.Drops() {
		r.moments.WithLabelValues(mode, string(d.Reason)).Inc()
	}

	switch res := out.Result.(type) {
	case *aggregate.PooledResult:
		for _, m := range res.Measures {
			st := res.Stats[m]
			setFinite(r.measureMean.WithLabelValues(mode, string(m)), st.Mean)
			setFinite(r.measureStd.WithLabelValues(string(m)), st.Std)
		}
	case *aggregate.AlignedResult:
		for _, m := range res.Measures {
			curve, _ := res.Curve(m)
			setFinite(r.measureMean.WithLabelValues(mode, string(m)), aggregate.Describe(curve).Mean)
		}
	}

	r.logStats(out)
}

// ObserveSegment counts one single-segment lookup.
func (r *Recorder) ObserveSegment(status string) {
	r.segments.WithLabelValues(status).Inc()
}

// setFinite stores v, or 0 when v is NaN so the series stays scrapeable.
func setFinite(g prometheus.Gauge, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		g.Set(0)
		return
	}
	g.Set(v)
}

func (r *Recorder) logStats(out Outcome) {
	fields := []interface{}{
		zap.String("id", out.ID),
		zap.String("mode", string(out.Mode)),
		zap.String("status", out.status()),
		zap.Int("moments", len(out.Moments)),
		zap.Int("included", out.Included()),
		zap.Duration("duration", out.Duration),
	}
	if out.Query != "" {
		fields = append(fields, zap.String("query", out.Query))
	}
	if n := len(out.Rejected); n > 0 {
		fields = append(fields, zap.Int("rejected", n))
	}
	if drops := out.Drops(); len(drops) > 0 {
		fields = append(fields, zap.Int("dropped", len(drops)))
	}

	r.logger.Sugar().Infow("Aggregation recorded", fields...)
}

func measureNames(ms []measure.Measure) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = string(m)
	}
	return out
}
