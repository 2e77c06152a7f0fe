package kafka

import (
	// Go Internal Packages
	"context"
	"strconv"
	"time"

	// Local Packages
	errors "kafka-relay/errors"
	models "kafka-relay/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// ProducerClient is the part of the franz-go client the gateway uses.
type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

var _ ProducerClient = (*kgo.Client)(nil)

// ProducerClientFactory opens a producer client from options.
type ProducerClientFactory func(opts ...kgo.Opt) (ProducerClient, error)

func defaultProducerClientFactory(opts ...kgo.Opt) (ProducerClient, error) {
	return kgo.NewClient(opts...)
}

// DeadLetterQueue records sends the broker did not confirm.
type DeadLetterQueue interface {
	Send(ctx context.Context, failed models.FailedSend) error
}

// deadLetterTimeout bounds the write of a failed send to the dead-letter queue.
const deadLetterTimeout = 5 * time.Second

// Producer publishes one message per call over a client that lives only for
// that call.
type Producer struct {
	conn      *ConnectionManager
	dlq       DeadLetterQueue
	logger    *zap.Logger
	newClient ProducerClientFactory
	now       func() time.Time
}

type ProducerOpt func(*Producer)

// WithProducerClientFactory replaces the franz-go client constructor.
func WithProducerClientFactory(f ProducerClientFactory) ProducerOpt {
	return func(p *Producer) { p.newClient = f }
}

// WithDeadLetterQueue records failed sends in dlq.
func WithDeadLetterQueue(dlq DeadLetterQueue) ProducerOpt {
	return func(p *Producer) { p.dlq = dlq }
}

func NewProducer(conn *ConnectionManager, logger *zap.Logger, opts ...ProducerOpt) *Producer {
	p := &Producer{
		conn:      conn,
		logger:    logger,
		newClient: defaultProducerClientFactory,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Send publishes msg as a single record and waits for the broker to
// acknowledge it. The client is closed before Send returns, whatever the
// outcome. A failed Send does not prove the record was not written.
func (p *Producer) Send(ctx context.Context, msg models.OutboundMessage) ([]models.RecordMetadata, error) {
	if msg.Topic == "" || !msg.HasValue() {
		return nil, errors.ErrSendFieldsRequired
	}
	value, err := msg.EncodedValue()
	if err != nil {
		return nil, errors.ValidationFailedErr(err)
	}

	opts := append(p.conn.Opts(), kgo.RecordDeliveryTimeout(p.deliveryTimeout()))
	client, err := p.newClient(opts...)
	if err != nil {
		err = errors.ConnectionErr("cannot create producer client", err)
		p.deadLetter(ctx, msg, err)
		return nil, err
	}
	defer client.Close()

	record := &kgo.Record{
		Topic: msg.Topic,
		Key:   msg.RecordKey(),
		Value: value,
	}

	results := client.ProduceSync(ctx, record)
	if err := results.FirstErr(); err != nil {
		err = errors.ConnectionErr("cannot produce record", err)
		p.logger.Error("failed to send message", zap.String("topic", msg.Topic), zap.Error(err))
		p.deadLetter(ctx, msg, err)
		return nil, err
	}

	metadata := make([]models.RecordMetadata, 0, len(results))
	for _, res := range results {
		metadata = append(metadata, models.RecordMetadata{
			TopicName:     res.Record.Topic,
			Partition:     res.Record.Partition,
			BaseOffset:    strconv.FormatInt(res.Record.Offset, 10),
			LogAppendTime: "-1",
		})
	}

	p.logger.Debug("message sent",
		zap.String("topic", msg.Topic),
		zap.Int32("partition", record.Partition),
		zap.Int64("offset", record.Offset),
	)
	return metadata, nil
}

// deliveryTimeout bounds how long ProduceSync may keep retrying a record.
func (p *Producer) deliveryTimeout() time.Duration {
	conf := p.conn.Config()
	timeout := conf.ConnectionTimeout + conf.RequestTimeout
	if timeout <= 0 {
		return 30 * time.Second
	}
	return timeout
}

func (p *Producer) deadLetter(ctx context.Context, msg models.OutboundMessage, cause error) {
	if p.dlq == nil {
		return
	}

	failed := models.FailedSend{
		Topic:    msg.Topic,
		Key:      msg.Key,
		Value:    msg.Value,
		Error:    cause.Error(),
		FailedAt: p.now().UTC(),
	}
	// The send may have failed because ctx was canceled; the record must
	// still reach the queue.
	dlqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deadLetterTimeout)
	defer cancel()
	if err := p.dlq.Send(dlqCtx, failed); err != nil {
		p.logger.Warn("cannot record failed send", zap.String("topic", msg.Topic), zap.Error(err))
	}
}
