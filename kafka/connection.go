package kafka

import (
	// Go Internal Packages
	"context"
	"crypto/tls"
	"time"

	// External Packages
	"github.com/aws/aws-msk-iam-sasl-signer-go/signer"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/oauth"
	"github.com/twmb/franz-go/plugin/kzap"
	"go.uber.org/zap"
)

// TokenProvider issues a bearer token for a single connection attempt.
type TokenProvider func(ctx context.Context) (string, error)

// MSKTokenProvider signs a fresh AWS MSK IAM token for region on every call.
func MSKTokenProvider(region string) TokenProvider {
	return func(ctx context.Context) (string, error) {
		token, _, err := signer.GenerateAuthToken(ctx, region)
		return token, err
	}
}

// BrokerConfig holds everything needed to reach and authenticate against the
// brokers. It is not modified after startup.
type BrokerConfig struct {
	Brokers  []string
	ClientID string

	// TLS enables TLS on every broker connection.
	TLS bool

	// Tokens, when set, enables SASL/OAUTHBEARER. It is called by the client
	// on each connection and reconnection, never ahead of time.
	Tokens TokenProvider

	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration

	MaxAttempts    int
	InitialBackoff time.Duration
}

// ConnectionManager turns a BrokerConfig into client options shared by the
// producer gateway and the persistent consumer.
type ConnectionManager struct {
	config BrokerConfig
	logger *zap.Logger
}

func NewConnectionManager(conf BrokerConfig, logger *zap.Logger) *ConnectionManager {
	return &ConnectionManager{config: conf, logger: logger}
}

// Config returns the broker configuration.
func (m *ConnectionManager) Config() BrokerConfig {
	return m.config
}

// Opts returns the options every client gets: seeds, identity, security,
// timeouts and the retry policy.
func (m *ConnectionManager) Opts() []kgo.Opt {
	conf := m.config
	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),
		kgo.WithLogger(kzap.New(m.logger, kzap.Level(kgo.LogLevelError))),
	}

	if conf.ClientID != "" {
		opts = append(opts, kgo.ClientID(conf.ClientID))
	}
	if conf.ConnectionTimeout > 0 {
		opts = append(opts, kgo.DialTimeout(conf.ConnectionTimeout))
	}
	// franz-go has no flat request timeout; the overhead is added on top of
	// each request's own timeout field.
	if conf.RequestTimeout > 0 {
		opts = append(opts, kgo.RequestTimeoutOverhead(conf.RequestTimeout))
	}
	if conf.MaxAttempts > 0 {
		opts = append(opts, kgo.RequestRetries(conf.MaxAttempts))
	}
	if backoff := conf.InitialBackoff; backoff > 0 {
		opts = append(opts, kgo.RetryBackoffFn(func(int) time.Duration { return backoff }))
	}
	if conf.TLS {
		opts = append(opts, kgo.DialTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}))
	}
	if mech := m.Mechanism(); mech != nil {
		opts = append(opts, kgo.SASL(mech))
	}

	return opts
}

// Mechanism returns the SASL mechanism, or nil when no token provider is
// configured.
func (m *ConnectionManager) Mechanism() sasl.Mechanism {
	tokens := m.config.Tokens
	if tokens == nil {
		return nil
	}
	return oauth.Oauth(func(ctx context.Context) (oauth.Auth, error) {
		token, err := tokens(ctx)
		if err != nil {
			m.logger.Error("cannot obtain broker auth token", zap.Error(err))
			return oauth.Auth{}, err
		}
		return oauth.Auth{Token: token}, nil
	})
}
