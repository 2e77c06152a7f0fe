// Package kafkatest provides an in-memory stand-in for a Kafka cluster that
// satisfies the client interfaces of package kafka.
package kafkatest

import (
	// Go Internal Packages
	"context"
	"sync"
	"sync/atomic"
	"time"

	// Local Packages
	kafka "kafka-relay/kafka"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
)

// Broker is a single-partition log shared by every client it hands out.
// Consumers see every topic; filtering by subscription is left to callers.
type Broker struct {
	mu      sync.Mutex
	log     []*kgo.Record
	offsets map[string]int64
	notify  chan struct{}

	// ProduceErr, when set, fails every produce.
	ProduceErr error
	// PingErr, when set, fails every consumer ping.
	PingErr error
	// Now stamps produced records.
	Now func() time.Time

	ProducersOpened atomic.Int64
	ProducersClosed atomic.Int64
	ConsumersOpened atomic.Int64
	ConsumersClosed atomic.Int64
	ConsumerPings   atomic.Int64
}

func NewBroker() *Broker {
	return &Broker{
		offsets: make(map[string]int64),
		notify:  make(chan struct{}),
		Now:     time.Now,
	}
}

// ProducerFactory returns a factory for kafka.WithProducerClientFactory.
func (b *Broker) ProducerFactory() kafka.ProducerClientFactory {
	return func(...kgo.Opt) (kafka.ProducerClient, error) {
		b.ProducersOpened.Add(1)
		return &producerClient{broker: b}, nil
	}
}

// ConsumerFactory returns a factory for kafka.WithConsumerClientFactory.
func (b *Broker) ConsumerFactory() kafka.ConsumerClientFactory {
	return func(...kgo.Opt) (kafka.ConsumerClient, error) {
		b.ConsumersOpened.Add(1)
		return &consumerClient{broker: b, closed: make(chan struct{})}, nil
	}
}

// Records returns a copy of everything produced so far.
func (b *Broker) Records() []*kgo.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*kgo.Record, len(b.log))
	copy(out, b.log)
	return out
}

func (b *Broker) append(r *kgo.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ProduceErr != nil {
		return b.ProduceErr
	}

	r.Partition = 0
	r.Offset = b.offsets[r.Topic]
	b.offsets[r.Topic]++
	if r.Timestamp.IsZero() {
		r.Timestamp = b.Now()
	}
	b.log = append(b.log, r)

	close(b.notify)
	b.notify = make(chan struct{})
	return nil
}

type producerClient struct {
	broker *Broker
	closed atomic.Bool
}

func (p *producerClient) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		err := ctx.Err()
		if err == nil {
			err = p.broker.append(r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: err})
	}
	return results
}

func (p *producerClient) Close() {
	if p.closed.CompareAndSwap(false, true) {
		p.broker.ProducersClosed.Add(1)
	}
}

type consumerClient struct {
	broker    *Broker
	cursor    int
	closeOnce sync.Once
	closed    chan struct{}
}

func (c *consumerClient) Ping(context.Context) error {
	c.broker.ConsumerPings.Add(1)
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	return c.broker.PingErr
}

// PollRecords blocks until records past the client's cursor exist, ctx is
// done, or the client is closed.
func (c *consumerClient) PollRecords(ctx context.Context, max int) kgo.Fetches {
	b := c.broker
	for {
		select {
		case <-c.closed:
			return kgo.NewErrFetch(kgo.ErrClientClosed)
		default:
		}

		b.mu.Lock()
		if c.cursor < len(b.log) {
			end := len(b.log)
			if max > 0 && c.cursor+max < end {
				end = c.cursor + max
			}
			batch := append([]*kgo.Record(nil), b.log[c.cursor:end]...)
			c.cursor = end
			b.mu.Unlock()
			return fetchesOf(batch)
		}
		wait := b.notify
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return kgo.NewErrFetch(ctx.Err())
		case <-c.closed:
			return kgo.NewErrFetch(kgo.ErrClientClosed)
		case <-wait:
		}
	}
}

func (c *consumerClient) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.broker.ConsumersClosed.Add(1)
	})
}

// fetchesOf groups records by topic into a single fetch.
func fetchesOf(records []*kgo.Record) kgo.Fetches {
	var topics []kgo.FetchTopic
	index := make(map[string]int)
	for _, r := range records {
		i, ok := index[r.Topic]
		if !ok {
			i = len(topics)
			index[r.Topic] = i
			topics = append(topics, kgo.FetchTopic{
				Topic:      r.Topic,
				Partitions: []kgo.FetchPartition{{Partition: 0}},
			})
		}
		topics[i].Partitions[0].Records = append(topics[i].Partitions[0].Records, r)
	}
	return kgo.Fetches{{Topics: topics}}
}
