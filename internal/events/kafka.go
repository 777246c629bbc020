package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/config"
)

type kafkaZapLogger struct {
	log *zap.Logger
}

func (l kafkaZapLogger) Printf(msg string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(msg, args...))
}

type kafkaZapErrorLogger struct {
	log *zap.Logger
}

func (l kafkaZapErrorLogger) Printf(msg string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, args...))
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON, keyed by event id.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *zap.Logger
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher for cfg.Topic.
func NewKafkaPublisher(cfg config.EventsConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		logger.Error("Kafka configuration validation failed",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("topic", cfg.Topic),
		)
		return nil, ErrInvalidKafkaConfig
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Logger:                 kafkaZapLogger{logger.Named("kafka-writer").WithOptions(zap.AddCallerSkip(1))},
		ErrorLogger:            kafkaZapErrorLogger{logger.Named("kafka-writer-error").WithOptions(zap.AddCallerSkip(1))},
	}

	logger.Info("Kafka publisher created",
		zap.String("topic", cfg.Topic),
		zap.Strings("brokers", cfg.Brokers),
		zap.Duration("write_timeout", cfg.WriteTimeout),
	)

	return newKafkaPublisher(w, cfg.WriteTimeout, logger), nil
}

func newKafkaPublisher(w messageWriter, timeout time.Duration, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: timeout, logger: logger}
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, ev AggregationCompleted) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeEvent, err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.ID), Value: payload}); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	p.logger.Debug("Published aggregation event",
		zap.String("id", ev.ID),
		zap.String("mode", ev.Mode),
		zap.Int("bytes", len(payload)),
	)
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher...")
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
		return err
	}
	p.logger.Info("Kafka publisher closed successfully.")
	return nil
}
