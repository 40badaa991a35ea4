// Package bridge forwards Kafka records to the Adapter Hub as topic
// messages. Transport failures are dead-lettered with their taxonomy code;
// business failures reported by the hub are terminal and only logged.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	adapterhub "github.com/9kl/lsyiot-adapter-hub-sdk"
	"github.com/9kl/lsyiot-adapter-hub-sdk/internal/kafka/consumer"
)

// Sender is the hub client surface the bridge depends on.
type Sender interface {
	SendTopicMessage(ctx context.Context, topic string, data adapterhub.Payload) (*adapterhub.Result, error)
}

// DLQPublisher publishes dead-letter records.
type DLQPublisher interface {
	PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error
}

// Config controls forwarding behaviour.
type Config struct {
	// Concurrency caps in-flight forwards across partition claims.
	Concurrency int64
	// ForwardTimeout bounds a single hub exchange.
	ForwardTimeout time.Duration
	// DLQTopic receives records that failed at the transport layer. When
	// empty, failed records are left uncommitted for redelivery instead.
	DLQTopic string
}

// Bridge turns consumed Kafka records into hub topic messages.
type Bridge struct {
	logger         zerolog.Logger
	sender         Sender
	dlq            DLQPublisher
	dlqTopic       string
	sem            *semaphore.Weighted
	forwardTimeout time.Duration
}

// deadLetter is the record shape published to the DLQ topic.
type deadLetter struct {
	MessageID string    `json:"message_id"`
	Topic     string    `json:"topic"`
	Key       string    `json:"key,omitempty"`
	Payload   string    `json:"payload"`
	ErrorCode int       `json:"error_code"`
	Error     string    `json:"error"`
	FailedAt  time.Time `json:"failed_at"`
}

// New constructs a Bridge. The DLQ publisher may be nil when no DLQ topic is
// configured.
func New(sender Sender, dlq DLQPublisher, cfg Config, logger zerolog.Logger) (*Bridge, error) {
	if sender == nil {
		return nil, errors.New("bridge: sender dependency is required")
	}
	if cfg.DLQTopic != "" && dlq == nil {
		return nil, errors.New("bridge: dlq publisher is required when a dlq topic is configured")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	forwardTimeout := cfg.ForwardTimeout
	if forwardTimeout <= 0 {
		forwardTimeout = 10 * time.Second
	}

	return &Bridge{
		logger:         logger,
		sender:         sender,
		dlq:            dlq,
		dlqTopic:       cfg.DLQTopic,
		sem:            semaphore.NewWeighted(concurrency),
		forwardTimeout: forwardTimeout,
	}, nil
}

// Handle forwards one record to the hub. A nil return commits the record;
// an error leaves it for redelivery.
func (b *Bridge) Handle(ctx context.Context, record *consumer.Record) error {
	if record == nil {
		return errors.New("bridge: record is required")
	}

	if err := b.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("bridge: acquire slot: %w", err)
	}
	defer b.sem.Release(1)

	payload := payloadFromValue(record.Value)

	forwardCtx, cancel := context.WithTimeout(ctx, b.forwardTimeout)
	defer cancel()

	result, err := b.sender.SendTopicMessage(forwardCtx, record.Topic, payload)
	if err != nil {
		return b.handleFailure(record, err)
	}

	if result.IsError() {
		// The hub understood the message and rejected it; retrying or
		// dead-lettering cannot change the outcome.
		b.logger.Warn().
			Str("topic", record.Topic).
			Int("code", result.Code()).
			Str("message", result.Message()).
			Msg("hub rejected forwarded message")
		return nil
	}

	b.logger.Debug().
		Str("topic", record.Topic).
		Int64("offset", record.Offset).
		Msg("record forwarded to hub")
	return nil
}

func (b *Bridge) handleFailure(record *consumer.Record, sendErr error) error {
	code := adapterhub.CodeUnknown
	var hubErr *adapterhub.Error
	if errors.As(sendErr, &hubErr) {
		code = hubErr.Code
	}

	if b.dlqTopic == "" {
		return fmt.Errorf("bridge: forward %s/%d: %w", record.Topic, record.Offset, sendErr)
	}

	letter := deadLetter{
		MessageID: uuid.NewString(),
		Topic:     record.Topic,
		Key:       string(record.Key),
		Payload:   string(record.Value),
		ErrorCode: code,
		Error:     sendErr.Error(),
		FailedAt:  time.Now().UTC(),
	}

	encoded, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("bridge: encode dead letter: %w", err)
	}

	headers := map[string][]byte{"content-type": []byte("application/json")}
	if err := b.dlq.PublishSync(b.dlqTopic, record.Key, headers, encoded); err != nil {
		return fmt.Errorf("bridge: publish dead letter: %w", err)
	}

	b.logger.Error().
		Err(sendErr).
		Str("topic", record.Topic).
		Int("error_code", code).
		Str("dlq_topic", b.dlqTopic).
		Msg("record dead-lettered")
	return nil
}

// payloadFromValue keeps structured record values structured: JSON objects
// and arrays forward as-is, everything else forwards as raw text.
func payloadFromValue(value []byte) adapterhub.Payload {
	var decoded any
	if err := json.Unmarshal(value, &decoded); err == nil {
		switch v := decoded.(type) {
		case map[string]any:
			return adapterhub.Object(v)
		case []any:
			return adapterhub.List(v)
		}
	}
	return adapterhub.Text(string(value))
}
