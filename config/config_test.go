package config

import (
	// Go Internal Packages
	"os"
	"path/filepath"
	"testing"
	"time"

	// Local Packages
	errors "kafka-relay/errors"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults(t *testing.T) Config {
	t.Helper()
	k, err := NewKoanf("")
	require.NoError(t, err)
	c, err := Parse(k)
	require.NoError(t, err)
	return c
}

func TestDefaultConfig(t *testing.T) {
	c := defaults(t)

	assert.Equal(t, "kafka-relay", c.Application)
	assert.Equal(t, 3001, c.HTTP.Port)
	assert.Equal(t, "/relay", c.HTTP.Prefix)
	assert.True(t, c.HTTP.LegacyRoutes)
	assert.Equal(t, 5*time.Second, c.HTTP.ShutdownTimeout)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "chat-kafka-server", c.Kafka.ClientID)
	assert.Equal(t, "mcp_agent_queen", c.Kafka.Topic)
	assert.Equal(t, "chat-consumer", c.Kafka.ConsumerGroupPrefix)
	assert.Equal(t, 3*time.Second, c.Kafka.ConnectionTimeout)
	assert.Equal(t, 25*time.Second, c.Kafka.RequestTimeout)
	assert.Equal(t, 3, c.Kafka.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, c.Kafka.Retry.InitialBackoff)
	assert.Equal(t, "ap-south-1", c.Kafka.SASL.Region)
	assert.Equal(t, 100, c.Store.Capacity)
	assert.False(t, c.Redis.Enabled)
	assert.Equal(t, int64(1000), c.Redis.MaxLen)

	assert.NoError(t, c.Validate())
}

func TestNewKoanfFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 8080
kafka:
  topic: "support_chat"
  sasl:
    mechanism: "aws_msk_iam"
store:
  capacity: 250
`), 0o600))

	k, err := NewKoanf(path)
	require.NoError(t, err)
	c, err := Parse(k)
	require.NoError(t, err)

	assert.Equal(t, 8080, c.HTTP.Port)
	assert.Equal(t, "support_chat", c.Kafka.Topic)
	assert.Equal(t, SASLMechanismMSKIAM, c.Kafka.SASL.Mechanism)
	assert.Equal(t, 250, c.Store.Capacity)
	assert.Equal(t, "chat-kafka-server", c.Kafka.ClientID, "unset keys keep their defaults")
	assert.NoError(t, c.Validate())
}

func TestNewKoanfMissingFile(t *testing.T) {
	k, err := NewKoanf(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, 3001, k.Int("http.port"))
}

func TestNewKoanfMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("http: [port"), 0o600))

	_, err := NewKoanf(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{name: "port", mutate: func(c *Config) { c.HTTP.Port = 0 }, field: "http.port"},
		{name: "no brokers", mutate: func(c *Config) { c.Kafka.Brokers = nil }, field: "kafka.brokers"},
		{name: "no topic", mutate: func(c *Config) { c.Kafka.Topic = "" }, field: "kafka.topic"},
		{name: "unknown sasl", mutate: func(c *Config) { c.Kafka.SASL.Mechanism = "plain" }, field: "kafka.sasl.mechanism"},
		{name: "msk without region", mutate: func(c *Config) {
			c.Kafka.SASL.Mechanism = SASLMechanismMSKIAM
			c.Kafka.SASL.Region = ""
		}, field: "kafka.sasl.region"},
		{name: "redis without uri", mutate: func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.URI = ""
		}, field: "redis.uri"},
		{name: "store capacity", mutate: func(c *Config) { c.Store.Capacity = 0 }, field: "store.capacity"},
		{name: "records per poll", mutate: func(c *Config) { c.Kafka.RecordsPerPoll = 0 }, field: "kafka.records_per_poll"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := defaults(t)
			tc.mutate(&c)

			err := c.Validate()
			require.Error(t, err)
			var ve *errors.ValidationErrors
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, []string{tc.field}, ve.Fields())
		})
	}
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("MSK_BOOTSTRAP_SERVERS", "b-1.msk:9098, b-2.msk:9098,")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("KAFKA_TOPIC", "support_chat")
	t.Setenv("PORT", "9000")
	t.Setenv("REDIS_URI", "redis:6379")
	t.Setenv("REDIS_PASSWORD", "hunter2")
	t.Setenv("IS_PROD_MODE", "true")

	c := LoadSecrets(defaults(t))

	assert.Equal(t, []string{"b-1.msk:9098", "b-2.msk:9098"}, c.Kafka.Brokers)
	assert.Equal(t, "eu-west-1", c.Kafka.SASL.Region)
	assert.Equal(t, "support_chat", c.Kafka.Topic)
	assert.Equal(t, 9000, c.HTTP.Port)
	assert.Equal(t, "redis:6379", c.Redis.URI)
	assert.Equal(t, "hunter2", c.Redis.Password)
	assert.True(t, c.IsProdMode)

	assert.Equal(t, "<redacted>", c.Redacted().Redis.Password)
	assert.Equal(t, "hunter2", c.Redis.Password, "Redacted works on a copy")
}

func TestLoadSecretsIgnoresUnset(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("MSK_BOOTSTRAP_SERVERS", "")

	c := LoadSecrets(defaults(t))
	assert.Equal(t, 3001, c.HTTP.Port)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
}
