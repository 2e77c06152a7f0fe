package kafka

import (
	// Go Internal Packages
	"context"

	// Local Packages
	models "kafka-relay/models"

	// External Packages
	"github.com/stretchr/testify/mock"
	"github.com/twmb/franz-go/pkg/kgo"
)

// mockProducerClient is a mock implementation of ProducerClient for testing.
type mockProducerClient struct {
	mock.Mock
}

func (m *mockProducerClient) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	args := m.Called(ctx, rs)
	return args.Get(0).(kgo.ProduceResults)
}

func (m *mockProducerClient) Close() {
	m.Called()
}

// mockConsumerClient is a mock implementation of ConsumerClient for testing.
type mockConsumerClient struct {
	mock.Mock
}

func (m *mockConsumerClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockConsumerClient) PollRecords(ctx context.Context, max int) kgo.Fetches {
	args := m.Called(ctx, max)
	return args.Get(0).(kgo.Fetches)
}

func (m *mockConsumerClient) Close() {
	m.Called()
}

type mockDeadLetterQueue struct {
	mock.Mock
}

func (m *mockDeadLetterQueue) Send(ctx context.Context, failed models.FailedSend) error {
	args := m.Called(ctx, failed)
	return args.Error(0)
}

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) ProcessRecords(ctx context.Context, records []models.Record) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}
