package config

import (
	// Go Internal Packages
	"time"

	// Local Packages
	errors "kafka-relay/errors"
)

var DefaultConfig = []byte(`
application: "kafka-relay"

logger:
  level: "info"

is_prod_mode: false

http:
  port: 3001
  prefix: "/relay"
  legacy_routes: true
  read_timeout: 10s
  write_timeout: 30s
  shutdown_timeout: 5s

redis:
  enabled: false
  uri: "localhost:6379"
  password: ""
  list_name: "relay:failed-sends"
  max_len: 1000

kafka:
  brokers:
    - "localhost:9092"
  client_id: "chat-kafka-server"
  topic: "mcp_agent_queen"
  consumer_group_prefix: "chat-consumer"
  records_per_poll: 500
  tls: false
  sasl:
    mechanism: ""
    region: "ap-south-1"
  connection_timeout: 3s
  request_timeout: 25s
  retry:
    max_attempts: 3
    initial_backoff: 100ms
  session_timeout: 30s
  heartbeat_interval: 3s
  max_wait: 5s

store:
  capacity: 100
`)

// SASLMechanismMSKIAM signs OAUTHBEARER tokens with AWS MSK IAM credentials.
const SASLMechanismMSKIAM = "aws_msk_iam"

type Config struct {
	Application string `koanf:"application"`
	Logger      Logger `koanf:"logger"`
	IsProdMode  bool   `koanf:"is_prod_mode"`
	HTTP        HTTP   `koanf:"http"`
	Redis       Redis  `koanf:"redis"`
	Kafka       Kafka  `koanf:"kafka"`
	Store       Store  `koanf:"store"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type HTTP struct {
	Port            int           `koanf:"port"`
	Prefix          string        `koanf:"prefix"`
	LegacyRoutes    bool          `koanf:"legacy_routes"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type Redis struct {
	Enabled  bool   `koanf:"enabled"`
	URI      string `koanf:"uri"`
	Password string `koanf:"password"`
	ListName string `koanf:"list_name"`
	MaxLen   int64  `koanf:"max_len"`
}

type Kafka struct {
	Brokers             []string      `koanf:"brokers"`
	ClientID            string        `koanf:"client_id"`
	Topic               string        `koanf:"topic"`
	ConsumerGroupPrefix string        `koanf:"consumer_group_prefix"`
	RecordsPerPoll      int           `koanf:"records_per_poll"`
	TLS                 bool          `koanf:"tls"`
	SASL                SASL          `koanf:"sasl"`
	ConnectionTimeout   time.Duration `koanf:"connection_timeout"`
	RequestTimeout      time.Duration `koanf:"request_timeout"`
	Retry               Retry         `koanf:"retry"`
	SessionTimeout      time.Duration `koanf:"session_timeout"`
	HeartbeatInterval   time.Duration `koanf:"heartbeat_interval"`
	MaxWait             time.Duration `koanf:"max_wait"`
}

type SASL struct {
	Mechanism string `koanf:"mechanism"`
	Region    string `koanf:"region"`
}

type Retry struct {
	MaxAttempts    int           `koanf:"max_attempts"`
	InitialBackoff time.Duration `koanf:"initial_backoff"`
}

type Store struct {
	Capacity int `koanf:"capacity"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	ve := errors.ValidationErrs()

	if c.Application == "" {
		ve.Add("application", "cannot be empty")
	}
	if c.Logger.Level == "" {
		ve.Add("logger.level", "cannot be empty")
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		ve.Add("http.port", "must be within 1..65535")
	}
	if c.HTTP.ReadTimeout < 0 || c.HTTP.WriteTimeout < 0 || c.HTTP.ShutdownTimeout < 0 {
		ve.Add("http", "timeouts cannot be negative")
	}
	if c.Redis.Enabled && c.Redis.URI == "" {
		ve.Add("redis.uri", "cannot be empty when redis is enabled")
	}
	if len(c.Kafka.Brokers) == 0 {
		ve.Add("kafka.brokers", "cannot be empty")
	}
	if c.Kafka.Topic == "" {
		ve.Add("kafka.topic", "cannot be empty")
	}
	if c.Kafka.RecordsPerPoll <= 0 {
		ve.Add("kafka.records_per_poll", "must be positive")
	}
	switch c.Kafka.SASL.Mechanism {
	case "":
	case SASLMechanismMSKIAM:
		if c.Kafka.SASL.Region == "" {
			ve.Add("kafka.sasl.region", "cannot be empty for "+SASLMechanismMSKIAM)
		}
	default:
		ve.Add("kafka.sasl.mechanism", "unsupported mechanism "+c.Kafka.SASL.Mechanism)
	}
	if c.Kafka.Retry.MaxAttempts < 0 {
		ve.Add("kafka.retry.max_attempts", "cannot be negative")
	}
	if c.Store.Capacity <= 0 {
		ve.Add("store.capacity", "must be positive")
	}

	return ve.Err()
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Redis.Password != "" {
		c.Redis.Password = "<redacted>"
	}
	return c
}
