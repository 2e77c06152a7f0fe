package kafka

import (
	// Go Internal Packages
	"context"
	"errors"
	"sync"
	"time"

	// Local Packages
	relayerrors "kafka-relay/errors"
	models "kafka-relay/models"
	utils "kafka-relay/utils"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type ConsumerConfig struct {
	Topic             string
	RecordsPerPoll    int
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration
	MaxWait           time.Duration
}

// ConsumerClient is the part of the franz-go client the consumer uses.
type ConsumerClient interface {
	Ping(ctx context.Context) error
	PollRecords(ctx context.Context, maxPollRecords int) kgo.Fetches
	Close()
}

var _ ConsumerClient = (*kgo.Client)(nil)

// ConsumerClientFactory opens a consumer client from options.
type ConsumerClientFactory func(opts ...kgo.Opt) (ConsumerClient, error)

func defaultConsumerClientFactory(opts ...kgo.Opt) (ConsumerClient, error) {
	return kgo.NewClient(opts...)
}

type RecordProcessor interface {
	ProcessRecords(ctx context.Context, records []models.Record) error
}

// Consumer is the single long-lived subscription of the relay. It is
// initialized lazily, and its run loop hands every fetched record to the
// processor.
type Consumer struct {
	Config    *ConsumerConfig
	Processor RecordProcessor
	Session   *Session
	Logger    *zap.Logger

	conn      *ConnectionManager
	metrics   *kprom.Metrics
	newClient ConsumerClientFactory

	// mu serializes Initialize, Start and Close and guards the fields below.
	mu     sync.Mutex
	client ConsumerClient
	cancel context.CancelFunc
	done   chan struct{}
}

type ConsumerOpt func(*Consumer)

// WithConsumerClientFactory replaces the franz-go client constructor.
func WithConsumerClientFactory(f ConsumerClientFactory) ConsumerOpt {
	return func(c *Consumer) { c.newClient = f }
}

// WithMetrics attaches kprom hooks to the consumer client.
func WithMetrics(metrics *kprom.Metrics) ConsumerOpt {
	return func(c *Consumer) { c.metrics = metrics }
}

func NewConsumer(conf *ConsumerConfig, conn *ConnectionManager, processor RecordProcessor, session *Session, logger *zap.Logger, opts ...ConsumerOpt) *Consumer {
	c := &Consumer{
		Config:    conf,
		Processor: processor,
		Session:   session,
		Logger:    logger,
		conn:      conn,
		newClient: defaultConsumerClientFactory,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connected reports whether the consumer is subscribed.
func (c *Consumer) Connected() bool { return c.Session.Connected() }

// Running reports whether the run loop is active.
func (c *Consumer) Running() bool { return c.Session.Running() }

// Initialize connects and subscribes. It is a no-op while connected. On
// failure the session is left disconnected; the next call tries again.
func (c *Consumer) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.Session.State() {
	case StateSubscribed, StateRunning:
		return nil
	case StateClosed:
		return relayerrors.ErrConsumerClosed
	}

	if _, err := c.Session.Apply(EventConnect); err != nil {
		return err
	}
	c.Logger.Info("initializing kafka consumer",
		zap.String("topic", c.Config.Topic),
		zap.String("group", c.Session.GroupID()),
	)

	// The client outlives failed attempts: franz-go reconnects on its own and
	// the kprom hooks must only ever be registered once.
	if c.client == nil {
		client, err := c.newClient(c.opts()...)
		if err != nil {
			_, _ = c.Session.Apply(EventConnectFailed)
			c.Logger.Error("failed to initialize consumer", zap.Error(err))
			return relayerrors.ConnectionErr("cannot create consumer client", err)
		}
		c.client = client
	}

	if err := c.client.Ping(ctx); err != nil {
		_, _ = c.Session.Apply(EventConnectFailed)
		c.Logger.Error("failed to initialize consumer", zap.Error(err))
		return relayerrors.ConnectionErr("cannot reach kafka brokers", err)
	}

	_, _ = c.Session.Apply(EventSubscribed)
	c.Logger.Info("kafka consumer connected and subscribed", zap.String("topic", c.Config.Topic))
	return nil
}

func (c *Consumer) opts() []kgo.Opt {
	conf := c.Config
	opts := append(c.conn.Opts(),
		kgo.ConsumerGroup(c.Session.GroupID()),
		kgo.ConsumeTopics(conf.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.OnPartitionsAssigned(c.logAssigned),
	)
	if conf.SessionTimeout > 0 {
		opts = append(opts, kgo.SessionTimeout(conf.SessionTimeout))
	}
	if conf.HeartbeatInterval > 0 {
		opts = append(opts, kgo.HeartbeatInterval(conf.HeartbeatInterval))
	}
	if conf.MaxWait > 0 {
		opts = append(opts, kgo.FetchMaxWait(conf.MaxWait))
	}
	if c.metrics != nil {
		opts = append(opts, kgo.WithHooks(c.metrics))
	}
	return opts
}

func (c *Consumer) logAssigned(_ context.Context, _ *kgo.Client, assigned map[string][]int32) {
	for topic, partitions := range assigned {
		c.Logger.Info("partitions assigned",
			zap.String("topic", topic),
			zap.String("partitions", utils.JoinInt32Slice(partitions)),
		)
	}
}

// Start launches the run loop in the background unless it is already running
// or the consumer is not connected. It reports whether a loop was started.
// The loop lives until ctx is done, the client is closed, or it fails; on
// failure the session drops back to subscribed so a later Start restarts it.
func (c *Consumer) Start(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return false
	}
	if _, err := c.Session.Apply(EventRun); err != nil {
		return false
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel, c.done = cancel, done

	client := c.client
	go func() {
		defer close(done)
		defer cancel()

		err := c.Poll(runCtx, client)
		if err != nil && !errors.Is(err, context.Canceled) {
			c.Logger.Error("consumer run error", zap.Error(relayerrors.RunLoopErr(err)))
		}
		_, _ = c.Session.Apply(EventRunStopped)
	}()
	return true
}

// Poll polls for records from the Kafka broker until ctx is done or the client
// is closed.
func (c *Consumer) Poll(ctx context.Context, client ConsumerClient) error {
	recordsPerPoll := c.Config.RecordsPerPoll

	for {
		// Check if the context is canceled before polling
		if ctx.Err() != nil {
			c.Logger.Warn("polling stopped: context canceled")
			return ctx.Err()
		}

		fetches := client.PollRecords(ctx, recordsPerPoll)

		// Handle client shutdown
		if fetches.IsClientClosed() {
			return kgo.ErrClientClosed
		}

		// Handle context cancellation explicitly
		if errors.Is(fetches.Err0(), context.Canceled) {
			return context.Canceled
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			c.Logger.Error("fetch error",
				zap.String("topic", topic),
				zap.Int32("partition", partition),
				zap.Error(err),
			)
		})

		fetched := fetches.Records()
		if len(fetched) == 0 {
			continue
		}

		records := make([]models.Record, len(fetched))
		for idx, record := range fetched {
			records[idx] = models.Record{
				Key:       record.Key,
				Value:     record.Value,
				Topic:     record.Topic,
				Partition: record.Partition,
				Offset:    record.Offset,
				Timestamp: record.Timestamp,
			}
		}

		// Don't exit on a single failure
		if err := c.Processor.ProcessRecords(ctx, records); err != nil {
			c.Logger.Error("failed to process records", zap.Error(err))
		}
	}
}

// Close stops the run loop and disconnects. It waits for the loop to exit
// until ctx is done. The consumer cannot be initialized again afterwards.
func (c *Consumer) Close(ctx context.Context) error {
	c.mu.Lock()
	client, cancel, done := c.client, c.cancel, c.done
	c.client = nil
	_, _ = c.Session.Apply(EventClose)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if client != nil {
		client.Close()
	}
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
