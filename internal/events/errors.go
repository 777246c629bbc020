package events

import "errors"

var (
	ErrInvalidKafkaConfig = errors.New("invalid Kafka configuration provided")
	ErrEncodeEvent        = errors.New("failed to encode event")
	ErrPublishFailed      = errors.New("failed to publish event")
	ErrKafkaFetchFailed   = errors.New("failed to fetch message from Kafka")
	ErrDecodeEvent        = errors.New("failed to decode event")
)
