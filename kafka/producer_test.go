package kafka

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	// Local Packages
	relayerrors "kafka-relay/errors"
	models "kafka-relay/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

// recordingProducerClient acknowledges every record at a fixed position.
type recordingProducerClient struct {
	partition int32
	offset    int64
	produced  []*kgo.Record
	closes    int
}

func (c *recordingProducerClient) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		r.Partition, r.Offset = c.partition, c.offset
		c.produced = append(c.produced, r)
		results = append(results, kgo.ProduceResult{Record: r})
	}
	return results
}

func (c *recordingProducerClient) Close() { c.closes++ }

// newTestProducer returns a producer whose factory hands out client and
// counts how often it was asked to.
func newTestProducer(client ProducerClient, opens *int, opts ...ProducerOpt) *Producer {
	conn := NewConnectionManager(BrokerConfig{Brokers: []string{"localhost:9092"}}, zap.NewNop())
	factory := func(...kgo.Opt) (ProducerClient, error) {
		*opens++
		return client, nil
	}
	opts = append([]ProducerOpt{WithProducerClientFactory(factory)}, opts...)
	return NewProducer(conn, zap.NewNop(), opts...)
}

func TestProducerSend(t *testing.T) {
	t.Parallel()

	t.Run("publishes one record and closes", func(t *testing.T) {
		t.Parallel()
		client := &recordingProducerClient{partition: 2, offset: 41}

		opens := 0
		p := newTestProducer(client, &opens)
		msg := models.OutboundMessage{Topic: "t1", Key: strPtr("k"), Value: json.RawMessage(`{ "x" : 1 }`)}

		md, err := p.Send(context.Background(), msg)
		require.NoError(t, err)
		require.Len(t, md, 1)
		assert.Equal(t, "t1", md[0].TopicName)
		assert.Equal(t, int32(2), md[0].Partition)
		assert.Equal(t, "41", md[0].BaseOffset)

		require.Len(t, client.produced, 1)
		assert.Equal(t, "k", string(client.produced[0].Key))
		assert.JSONEq(t, `{"x":1}`, string(client.produced[0].Value))
		assert.Equal(t, `{"x":1}`, string(client.produced[0].Value), "value is sent compacted")
		assert.Equal(t, 1, opens)
		assert.Equal(t, 1, client.closes)
	})

	t.Run("empty key is sent as null", func(t *testing.T) {
		t.Parallel()
		client := &mockProducerClient{}
		client.On("ProduceSync", mock.Anything, mock.MatchedBy(func(rs []*kgo.Record) bool {
			return len(rs) == 1 && rs[0].Key == nil
		})).Return(kgo.ProduceResults{{Record: &kgo.Record{Topic: "t1"}}}).Once()
		client.On("Close").Return().Once()

		opens := 0
		p := newTestProducer(client, &opens)
		_, err := p.Send(context.Background(), models.OutboundMessage{Topic: "t1", Key: strPtr(""), Value: json.RawMessage(`"hi"`)})
		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("closes after a failed send and dead-letters it", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("NOT_LEADER_FOR_PARTITION")
		client := &mockProducerClient{}
		client.On("ProduceSync", mock.Anything, mock.Anything).
			Return(kgo.ProduceResults{{Record: &kgo.Record{Topic: "t1"}, Err: boom}}).Once()
		client.On("Close").Return().Once()

		dlq := &mockDeadLetterQueue{}
		dlq.On("Send", mock.Anything, mock.MatchedBy(func(f models.FailedSend) bool {
			return f.Topic == "t1" && f.Error != "" && string(f.Value) == `{"x":1}`
		})).Return(nil).Once()

		opens := 0
		p := newTestProducer(client, &opens, WithDeadLetterQueue(dlq))
		p.now = func() time.Time { return time.Unix(0, 0) }

		_, err := p.Send(context.Background(), models.OutboundMessage{Topic: "t1", Value: json.RawMessage(`{"x":1}`)})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, relayerrors.Connection, relayerrors.KindOf(err))
		client.AssertExpectations(t)
		dlq.AssertExpectations(t)
	})

	t.Run("dead-letter failure does not change the outcome", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("broker down")
		client := &mockProducerClient{}
		client.On("ProduceSync", mock.Anything, mock.Anything).
			Return(kgo.ProduceResults{{Record: &kgo.Record{}, Err: boom}}).Once()
		client.On("Close").Return().Once()
		dlq := &mockDeadLetterQueue{}
		dlq.On("Send", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

		opens := 0
		p := newTestProducer(client, &opens, WithDeadLetterQueue(dlq))
		_, err := p.Send(context.Background(), models.OutboundMessage{Topic: "t1", Value: json.RawMessage(`1`)})
		assert.ErrorIs(t, err, boom)
		client.AssertExpectations(t)
	})

	t.Run("dead-letters a send whose context was canceled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := &mockProducerClient{}
		client.On("ProduceSync", mock.Anything, mock.Anything).
			Return(kgo.ProduceResults{{Record: &kgo.Record{Topic: "t1"}, Err: context.Canceled}}).Once()
		client.On("Close").Return().Once()

		dlq := &mockDeadLetterQueue{}
		dlq.On("Send", mock.MatchedBy(func(ctx context.Context) bool {
			deadline, ok := ctx.Deadline()
			return ctx.Err() == nil && ok && time.Until(deadline) <= deadLetterTimeout
		}), mock.MatchedBy(func(f models.FailedSend) bool {
			return f.Topic == "t1" && f.Error != ""
		})).Return(nil).Once()

		opens := 0
		p := newTestProducer(client, &opens, WithDeadLetterQueue(dlq))
		_, err := p.Send(ctx, models.OutboundMessage{Topic: "t1", Value: json.RawMessage(`{"x":1}`)})
		assert.ErrorIs(t, err, context.Canceled)
		dlq.AssertExpectations(t)
	})

	t.Run("client creation failure is a connection error", func(t *testing.T) {
		t.Parallel()
		conn := NewConnectionManager(BrokerConfig{}, zap.NewNop())
		boom := errors.New("bad seed")
		p := NewProducer(conn, zap.NewNop(), WithProducerClientFactory(func(...kgo.Opt) (ProducerClient, error) {
			return nil, boom
		}))

		_, err := p.Send(context.Background(), models.OutboundMessage{Topic: "t1", Value: json.RawMessage(`1`)})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, relayerrors.Connection, relayerrors.KindOf(err))
	})
}

func TestProducerSendValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  models.OutboundMessage
	}{
		{name: "missing topic", msg: models.OutboundMessage{Value: json.RawMessage(`{"x":1}`)}},
		{name: "missing value", msg: models.OutboundMessage{Topic: "t1"}},
		{name: "null value", msg: models.OutboundMessage{Topic: "t1", Value: json.RawMessage(`null`)}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client := &mockProducerClient{}
			opens := 0
			p := newTestProducer(client, &opens)

			_, err := p.Send(context.Background(), tc.msg)
			assert.ErrorIs(t, err, relayerrors.ErrSendFieldsRequired)
			assert.Equal(t, 0, opens, "no client may be opened for an invalid send")
			client.AssertNotCalled(t, "ProduceSync", mock.Anything, mock.Anything)
		})
	}

	t.Run("malformed value", func(t *testing.T) {
		t.Parallel()
		opens := 0
		p := newTestProducer(&mockProducerClient{}, &opens)
		_, err := p.Send(context.Background(), models.OutboundMessage{Topic: "t1", Value: json.RawMessage(`{"x":`)})
		assert.Equal(t, relayerrors.Invalid, relayerrors.KindOf(err))
		assert.Equal(t, 0, opens)
	})
}
