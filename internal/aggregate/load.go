package aggregate

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sanspareilsmyn/momentlens/internal/moment"
	"github.com/sanspareilsmyn/momentlens/internal/series"
)

const defaultConcurrency = 4

// Options tunes an aggregator.
type Options struct {
	// Policy controls line-mode interpolation outside a segment's domain.
	Policy Policy
	// Concurrency bounds parallel dataset loads.
	Concurrency int
}

func (o Options) concurrency() int {
	if o.Concurrency <= 0 {
		return defaultConcurrency
	}
	return o.Concurrency
}

type loaded struct {
	moment moment.Moment
	series *series.TimeSeries
	drop   *Drop
}

// loadAll resolves every moment's dataset, preserving input order. Missing or
// unreadable datasets become drops; only context cancellation is an error.
func loadAll(ctx context.Context, store series.Store, moments []moment.Moment, limit int, logger *zap.Logger) ([]loaded, error) {
	out := make([]loaded, len(moments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, m := range moments {
		g.Go(func() error {
			out[i].moment = m
			ts, err := store.Load(gctx, m.VideoID)
			if err == nil {
				out[i].series = ts
				return nil
			}
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			reason := ReasonLoadFailed
			if errors.Is(err, series.ErrNotFound) {
				reason = ReasonNotFound
			}
			logger.Debug("Skipping moment without usable dataset",
				zap.String("video_id", m.VideoID),
				zap.String("reason", string(reason)),
				zap.Error(err),
			)
			out[i].drop = &Drop{Moment: m, Reason: reason, Detail: err.Error()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
