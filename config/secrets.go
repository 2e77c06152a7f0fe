package config

import (
	// Go Internal Packages
	"os"
	"strconv"
	"strings"
)

// LoadSecrets Loads the secret variables and overrides the config
func LoadSecrets(k Config) Config {
	brokers := os.Getenv("MSK_BOOTSTRAP_SERVERS")
	if brokers != "" {
		k.Kafka.Brokers = splitList(brokers)
	}

	region := os.Getenv("AWS_REGION")
	if region != "" {
		k.Kafka.SASL.Region = region
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic != "" {
		k.Kafka.Topic = topic
	}

	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		k.HTTP.Port = port
	}

	redisURI := os.Getenv("REDIS_URI")
	if redisURI != "" {
		k.Redis.URI = redisURI
	}

	redisPassword := os.Getenv("REDIS_PASSWORD")
	if redisPassword != "" {
		k.Redis.Password = redisPassword
	}

	IsProdMode := os.Getenv("IS_PROD_MODE")
	if IsProdMode != "" {
		k.IsProdMode = IsProdMode == "true"
	}
	return k
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
