package main

import (
	// Go Internal Packages
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Local Packages
	config "kafka-relay/config"
	errors "kafka-relay/errors"
	helpers "kafka-relay/helpers"
	kafka "kafka-relay/kafka"
	memory "kafka-relay/repositories/memory"
	redis "kafka-relay/repositories/redis"
	relaysvc "kafka-relay/services/relay"
	processors "kafka-relay/services/processors"
	server "kafka-relay/server"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/gin-gonic/gin"
	_ "github.com/jsternberg/zap-logfmt"
	"github.com/knadh/koanf"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag
func LoadConfig() *koanf.Koanf {
	configPathMsg := "Path to the application config file"
	configPath := kingpin.Flag("config", configPathMsg).Short('c').Default("config.yml").String()

	kingpin.Parse()
	k, err := config.NewKoanf(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	return k
}

func main() {
	startedAt := time.Now()
	k := LoadConfig()

	// Unmarshalling config into struct
	appKonf, err := config.Parse(k)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Update and Validate config before starting the server
	appKonf = config.LoadSecrets(appKonf)
	if err = appKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", errors.ValidationFailedErr(err))
	}

	if !appKonf.IsProdMode {
		helpers.PrintStruct(appKonf.Redacted())
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(appKonf.Logger.Level))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = appKonf.Application
	cfg.OutputPaths = []string{"stdout"}
	logger, _ := cfg.Build()
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var producerOpts []kafka.ProducerOpt
	var relayOpts []relaysvc.Opt

	// Redis Connection
	if appKonf.Redis.Enabled {
		redisClient, err := redis.Connect(ctx, appKonf.Redis.URI, appKonf.Redis.Password)
		if err != nil {
			logger.Fatal("cannot create redis client", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()

		dlQueue := redis.NewDeadLetterQueue(redisClient, logger, appKonf.Redis.ListName, appKonf.Redis.MaxLen)
		producerOpts = append(producerOpts, kafka.WithDeadLetterQueue(dlQueue))
		relayOpts = append(relayOpts, relaysvc.WithDeadLetters(dlQueue))
	}

	kc := appKonf.Kafka
	brokerConf := kafka.BrokerConfig{
		Brokers:           kc.Brokers,
		ClientID:          kc.ClientID,
		TLS:               kc.TLS,
		ConnectionTimeout: kc.ConnectionTimeout,
		RequestTimeout:    kc.RequestTimeout,
		MaxAttempts:       kc.Retry.MaxAttempts,
		InitialBackoff:    kc.Retry.InitialBackoff,
	}
	if kc.SASL.Mechanism == config.SASLMechanismMSKIAM {
		brokerConf.TLS = true
		brokerConf.Tokens = kafka.MSKTokenProvider(kc.SASL.Region)
	}
	conn := kafka.NewConnectionManager(brokerConf, logger)

	store := memory.NewMessageStore(appKonf.Store.Capacity)
	recordProcessor := processors.NewRecordProcessor(logger, store)

	metrics := kprom.NewMetrics("relay")
	session := kafka.NewSession(kc.ConsumerGroupPrefix, startedAt)
	consumerConf := &kafka.ConsumerConfig{
		Topic:             kc.Topic,
		RecordsPerPoll:    kc.RecordsPerPoll,
		SessionTimeout:    kc.SessionTimeout,
		HeartbeatInterval: kc.HeartbeatInterval,
		MaxWait:           kc.MaxWait,
	}
	consumer := kafka.NewConsumer(consumerConf, conn, recordProcessor, session, logger, kafka.WithMetrics(metrics))
	producer := kafka.NewProducer(conn, logger, producerOpts...)

	rl := relaysvc.New(ctx, producer, consumer, store, logger, relayOpts...)

	// The consumer connects at boot; consume requests retry if this fails.
	if err := consumer.Initialize(ctx); err != nil {
		logger.Error("failed to initialize consumer", zap.Error(err))
	}
	logger.Info("kafka consumer group", zap.String("group", session.GroupID()))

	srv := server.New(appKonf.HTTP, rl, metrics.Handler(), logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), appKonf.HTTP.ShutdownTimeout)
	defer cancel()
	if err := consumer.Close(closeCtx); err != nil {
		logger.Warn("consumer did not stop in time", zap.Error(err))
	}
	logger.Info("shut down gracefully")
}
