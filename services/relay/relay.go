package relay

import (
	// Go Internal Packages
	"context"
	"time"

	// Local Packages
	errors "kafka-relay/errors"
	models "kafka-relay/models"

	// External Packages
	"go.uber.org/zap"
)

type Producer interface {
	Send(ctx context.Context, msg models.OutboundMessage) ([]models.RecordMetadata, error)
}

type Consumer interface {
	Initialize(ctx context.Context) error
	Start(ctx context.Context) bool
	Connected() bool
	Running() bool
}

type MessageStore interface {
	Read(topic string, limit int) []models.InboundRecord
}

type DeadLetters interface {
	Recent(ctx context.Context, n int64) ([]models.FailedSend, error)
}

// DefaultLimit is the number of messages Consume returns when none is asked for.
const DefaultLimit = 10

// isoMillis matches the ISO-8601 form with millisecond precision the chat
// front-end expects.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Relay ties the producer gateway, the persistent consumer and the message
// store together. Background work started from a request (the consumer run
// loop) is bound to the relay's own context, not the request's.
type Relay struct {
	ctx         context.Context
	producer    Producer
	consumer    Consumer
	store       MessageStore
	deadLetters DeadLetters
	logger      *zap.Logger
	now         func() time.Time
}

type Opt func(*Relay)

// WithDeadLetters exposes failed sends through FailedSends.
func WithDeadLetters(dl DeadLetters) Opt {
	return func(r *Relay) { r.deadLetters = dl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Opt {
	return func(r *Relay) { r.now = now }
}

func New(ctx context.Context, producer Producer, consumer Consumer, store MessageStore, logger *zap.Logger, opts ...Opt) *Relay {
	r := &Relay{
		ctx:      ctx,
		producer: producer,
		consumer: consumer,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Send validates msg and publishes it.
func (r *Relay) Send(ctx context.Context, msg models.OutboundMessage) ([]models.RecordMetadata, error) {
	if msg.Topic == "" || !msg.HasValue() {
		return nil, errors.ErrSendFieldsRequired
	}

	r.logger.Info("received send request", zap.String("topic", msg.Topic))
	metadata, err := r.producer.Send(ctx, msg)
	if err != nil {
		r.logger.Error("error sending message", zap.String("topic", msg.Topic), zap.Error(err))
		return nil, err
	}
	return metadata, nil
}

// Consume makes sure the consumer is connected and running, then returns up
// to limit buffered messages for topic. A consumer that cannot connect is
// logged and retried on the next call; the buffer is served regardless.
func (r *Relay) Consume(ctx context.Context, topic string, limit int) ([]models.InboundRecord, error) {
	if topic == "" {
		return nil, errors.ErrTopicRequired
	}
	if limit <= 0 {
		return nil, errors.ErrInvalidLimit
	}

	if !r.consumer.Connected() {
		if err := r.consumer.Initialize(ctx); err != nil {
			if errors.Is(err, errors.ErrConsumerClosed) {
				return nil, err
			}
			r.logger.Warn("consumer not initialized", zap.Error(err))
		}
	}
	if !r.consumer.Running() && r.consumer.Start(r.ctx) {
		r.logger.Info("consumer run loop started")
	}

	messages := r.store.Read(topic, limit)
	r.logger.Debug("returning messages", zap.String("topic", topic), zap.Int("count", len(messages)))
	return messages, nil
}

// Health reports the consumer flags at the current time.
func (r *Relay) Health() models.Health {
	return models.Health{
		Status:            "ok",
		Timestamp:         r.now().UTC().Format(isoMillis),
		ConsumerConnected: r.consumer.Connected(),
		ConsumerRunning:   r.consumer.Running(),
	}
}

// FailedSends returns up to n recent failed sends. It reports false when no
// dead-letter queue is configured.
func (r *Relay) FailedSends(ctx context.Context, n int64) ([]models.FailedSend, bool, error) {
	if r.deadLetters == nil {
		return nil, false, nil
	}
	failed, err := r.deadLetters.Recent(ctx, n)
	if err != nil {
		return nil, true, errors.E(errors.Internal, "cannot read failed sends", err)
	}
	return failed, true, nil
}
