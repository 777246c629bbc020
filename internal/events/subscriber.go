package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/config"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler receives decoded events. A returned error stops the subscriber.
type Handler func(ctx context.Context, ev AggregationCompleted) error

// Subscriber reads aggregation events from a Kafka topic as part of a
// consumer group.
type Subscriber struct {
	reader messageReader
	logger *zap.Logger
}

// NewSubscriber creates and configures a consumer for cfg.Topic.
func NewSubscriber(cfg config.EventsConfig, logger *zap.Logger) (*Subscriber, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		logger.Error("Kafka configuration validation failed",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("topic", cfg.Topic),
			zap.String("group_id", cfg.GroupID),
		)
		return nil, ErrInvalidKafkaConfig
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		Logger:      kafkaZapLogger{logger.Named("kafka-reader").WithOptions(zap.AddCallerSkip(1))},
		ErrorLogger: kafkaZapErrorLogger{logger.Named("kafka-reader-error").WithOptions(zap.AddCallerSkip(1))},
	}

	logger.Info("Kafka subscriber created",
		zap.String("topic", cfg.Topic),
		zap.String("group_id", cfg.GroupID),
		zap.Strings("brokers", cfg.Brokers),
	)

	return newSubscriber(kafka.NewReader(readerCfg), logger), nil
}

func newSubscriber(r messageReader, logger *zap.Logger) *Subscriber {
	return &Subscriber{reader: r, logger: logger}
}

// Run hands every event to handle and commits it afterwards. Undecodable
// messages are committed and skipped. Run blocks until ctx is cancelled, the
// handler fails, or fetching fails; it closes the reader on return.
func (s *Subscriber) Run(ctx context.Context, handle Handler) error {
	sugar := s.logger.Sugar()
	sugar.Info("Starting Kafka subscriber loop...")

	defer func() {
		if err := s.reader.Close(); err != nil {
			sugar.Errorw("Failed to close Kafka reader cleanly", zap.Error(err))
		}
		sugar.Info("Kafka subscriber loop stopped.")
	}()

	for {
		m, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.logger.Debug("Context done, stopping subscriber fetch loop.", zap.Error(err))
				return context.Canceled
			}
			s.logger.Error("Error fetching message from Kafka", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrKafkaFetchFailed, err)
		}

		var ev AggregationCompleted
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			sugar.Warnw("Skipping undecodable event",
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(fmt.Errorf("%w: %w", ErrDecodeEvent, err)),
			)
		} else if err := handle(ctx, ev); err != nil {
			return err
		}

		if err := s.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return context.Canceled
			}
			s.logger.Warn("Failed to commit offset", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}
