// Package pipeline runs aggregation requests end to end: moment validation,
// dataset loading, aggregation, metrics and event delivery.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/aggregate"
	"github.com/sanspareilsmyn/momentlens/internal/config"
	"github.com/sanspareilsmyn/momentlens/internal/events"
	"github.com/sanspareilsmyn/momentlens/internal/moment"
	"github.com/sanspareilsmyn/momentlens/internal/series"
)

const channelBufferSize = 100

// Pipeline executes aggregation requests and feeds their outcomes to the
// recorder and publisher loops started by Run.
type Pipeline struct {
	store       series.Store
	pooler      *aggregate.Pooler
	aligner     *aggregate.Aligner
	defaultMode aggregate.Mode
	recorder    *Recorder
	publisher   events.Publisher
	logger      *zap.Logger
	now         func() time.Time

	recorded  chan Outcome
	published chan Outcome
}

// New creates and wires up a pipeline. A nil publisher disables events; a nil
// recorder records into a private registry.
func New(cfg config.AggregationConfig, store series.Store, recorder *Recorder, publisher events.Publisher, logger *zap.Logger) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")
	initLogger.Debug("Creating pipeline components...")

	// Resolve aggregation settings

	policy, err := aggregate.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	mode, err := aggregate.ParseMode(cfg.DefaultMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	// Fall back to no-op sinks
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if recorder == nil {
		recorder = NewRecorder(defaultNamespace, prometheus.NewRegistry(), logger)
	}

	// Initialize Components
	opts := aggregate.Options{Policy: policy, Concurrency: cfg.Concurrency}

	// Create Pipeline
	p := &Pipeline{
		store:       store,
		pooler:      aggregate.NewPooler(store, opts, logger),
		aligner:     aggregate.NewAligner(store, opts, logger),
		defaultMode: mode,
		recorder:    recorder,
		publisher:   publisher,
		logger:      logger.Named("pipeline"),
		now:         time.Now,
		recorded:    make(chan Outcome, channelBufferSize), // consumed by runRecorder
		published:   make(chan Outcome, channelBufferSize), // consumed by runPublisher
	}

	initLogger.Info("Pipeline instance created successfully",
		zap.String("policy", string(policy)),
		zap.String("default_mode", string(mode)),
		zap.Int("concurrency", cfg.Concurrency),
	)
	return p, nil
}

// Execute validates the request's moments and aggregates them. Malformed
// moments are dropped and reported in Outcome.Rejected. The returned error is
// aggregate.ErrNoData when nothing contributes.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*Outcome, error) {
	started := p.now()
	out := &Outcome{ID: req.ID, Query: req.Query}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	// Parse and aggregate
	out.Err = p.execute(ctx, req, out)
	out.CompletedAt = p.now()
	out.Duration = out.CompletedAt.Sub(started)

	// A cancelled request is neither recorded nor published
	if errors.Is(out.Err, context.Canceled) {
		return out, out.Err
	}
	p.notify(*out)

	if out.Err != nil {
		p.logger.Info("Aggregation produced no result",
			zap.String("id", out.ID),
			zap.String("mode", string(out.Mode)),
			zap.Int("moments", len(out.Moments)),
			zap.Int("rejected", len(out.Rejected)),
			zap.Error(out.Err),
		)
		return out, out.Err
	}

	p.logger.Debug("Aggregation finished",
		zap.String("id", out.ID),
		zap.String("mode", string(out.Mode)),
		zap.Int("included", out.Included()),
		zap.Duration("duration", out.Duration),
	)
	return out, nil
}

func (p *Pipeline) execute(ctx context.Context, req Request, out *Outcome) error {
	mode := p.defaultMode
	if req.Mode != "" {
		m, err := aggregate.ParseMode(req.Mode)
		if err != nil {
			return err
		}
		mode = m
	}
	out.Mode = mode

	// Drop malformed moments, keep the rest in input order
	out.Moments, out.Rejected = moment.Parse(req.Inputs)
	if len(out.Rejected) > 0 {
		sugar := p.logger.Sugar()
		for _, r := range out.Rejected {
			sugar.Warnw("Dropping malformed moment", zap.String("video_id", r.Input.VideoID), zap.Error(r.Err))
		}
	}
	if len(out.Moments) == 0 {
		if len(out.Rejected) > 0 {
			return fmt.Errorf("%w: %w", aggregate.ErrNoData, ErrNoValidMoments)
		}
		return aggregate.ErrNoMoments
	}

	// Dispatch to the aggregator for the mode
	var err error
	switch mode {
	case aggregate.ModeLine:
		out.Result, err = p.aligner.Aggregate(ctx, out.Moments, req.PreDuration, req.PostExtra)
	default:
		out.Result, err = p.pooler.Aggregate(ctx, out.Moments)
	}
	if err != nil {
		out.Result = nil
	}
	return err
}

// SegmentMetrics describes the samples of one video within [start, end].
func (p *Pipeline) SegmentMetrics(ctx context.Context, videoID string, start, end float64) (*aggregate.PooledResult, error) {
	m, err := moment.Validate(moment.Input{VideoID: videoID, Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSegment, err)
	}

	ts, err := p.store.Load(ctx, m.VideoID)
	if err != nil {
		p.recorder.ObserveSegment("error")
		return nil, err
	}

	res, err := aggregate.Pool([]series.Segment{series.Extract(ts, m.Start, m.End)})
	if err != nil {
		p.recorder.ObserveSegment("no_data")
		return nil, err
	}
	res.PureDuration = m.Duration()
	p.recorder.ObserveSegment("ok")
	return res, nil
}

// notify hands the outcome to the background loops without blocking the
// request when they fall behind.
func (p *Pipeline) notify(out Outcome) {
	for _, ch := range []chan Outcome{p.recorded, p.published} {
		select {
		case ch <- out:
		default:
			p.logger.Warn("Outcome channel full, dropping notification", zap.String("id", out.ID))
		}
	}
}

// Run starts the recorder and publisher loops and blocks until ctx is done.
func (p *Pipeline) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	var wg sync.WaitGroup

	sugar.Info("Pipeline Run: Starting components...")

	// Start components as goroutines
	wg.Add(2)
	go p.runRecorder(ctx, &wg)
	go p.runPublisher(ctx, &wg)

	// Wait for context cancellation
	<-ctx.Done()
	sugar.Info("Pipeline Run: Context cancelled. Waiting for components to finish...")
	// Wait for all component goroutines to complete their shutdown sequence
	sugar.Debug("Pipeline Run: Waiting on WaitGroup...")
	wg.Wait()
	sugar.Info("Pipeline Run: All components finished.")

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runRecorder executes the recorder component logic in a goroutine.
func (p *Pipeline) runRecorder(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	p.logger.Debug("Starting recorder goroutine...")
	if err := p.recorder.Run(ctx, p.recorded); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Recorder exited with error", zap.Error(err))
	} else {
		p.logger.Debug("Recorder goroutine cancelled gracefully")
	}
}

// runPublisher forwards successful outcomes to the event publisher.
func (p *Pipeline) runPublisher(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	publisherLogger := p.logger.Named("publisher").Sugar()
	publisherLogger.Debug("Starting publisher goroutine...")

	for {
		select {
		case out := <-p.published:
			if out.Err != nil {
				continue // only completed aggregations become events
			}
			if err := p.publisher.Publish(ctx, eventOf(out)); err != nil {
				publisherLogger.Warnw("Failed to publish aggregation event", zap.String("id", out.ID), zap.Error(err))
			}
		case <-ctx.Done():
			publisherLogger.Debug("Publisher context cancelled.", zap.Error(ctx.Err()))
			return
		}
	}
}

func eventOf(out Outcome) events.AggregationCompleted {
	ev := events.AggregationCompleted{
		ID:          out.ID,
		Query:       out.Query,
		Mode:        string(out.Mode),
		Moments:     len(out.Moments),
		Included:    out.Included(),
		Rejected:    len(out.Rejected),
		DurationMs:  out.Duration.Milliseconds(),
		CompletedAt: out.CompletedAt.UTC(),
	}
	switch r := out.Result.(type) {
	case *aggregate.PooledResult:
		ev.Skipped = len(r.Skipped)
		ev.PureDuration = r.PureDuration
		ev.Measures = measureNames(r.Measures)
	case *aggregate.AlignedResult:
		ev.Skipped = len(r.Skipped)
		ev.Excluded = r.ExcludedLabels()
		ev.PureDuration = r.PureDuration
		ev.PreDuration = r.PreDuration
		ev.PostExtra = r.PostExtra
		ev.Measures = measureNames(r.Measures)
	}
	return ev
}
