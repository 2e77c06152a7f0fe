package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// Local Packages
	models "kafka-relay/models"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DeadLetterQueue keeps failed sends in a capped Redis list, newest last.
type DeadLetterQueue struct {
	client   *redis.Client
	logger   *zap.Logger
	listName string
	maxLen   int64
}

func NewDeadLetterQueue(client *redis.Client, logger *zap.Logger, listName string, maxLen int64) *DeadLetterQueue {
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &DeadLetterQueue{client: client, logger: logger, listName: listName, maxLen: maxLen}
}

// Send appends a failed send to the list and trims it to maxLen entries.
func (r *DeadLetterQueue) Send(ctx context.Context, failed models.FailedSend) error {
	jsonData, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("failed to marshal failed send: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, r.listName, jsonData)
	pipe.LTrim(ctx, r.listName, -r.maxLen, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store failed send: %w", err)
	}

	r.logger.Info("failed send recorded", zap.String("topic", failed.Topic), zap.String("list", r.listName))
	return nil
}

// Recent returns up to n of the newest failed sends, oldest first.
func (r *DeadLetterQueue) Recent(ctx context.Context, n int64) ([]models.FailedSend, error) {
	if n <= 0 {
		return []models.FailedSend{}, nil
	}

	raw, err := r.client.LRange(ctx, r.listName, -n, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read failed sends: %w", err)
	}

	out := make([]models.FailedSend, 0, len(raw))
	for _, item := range raw {
		var failed models.FailedSend
		if err := json.Unmarshal([]byte(item), &failed); err != nil {
			r.logger.Error("failed to unmarshal failed send", zap.Error(err))
			continue
		}
		out = append(out, failed)
	}
	return out, nil
}
