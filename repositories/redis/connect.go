package redis

import (
	// Go Internal Packages
	"context"
	"time"

	// External Packages
	"github.com/redis/go-redis/v9"
)

// Connect connects to the redis db used for dead letters and returns the client.
func Connect(ctx context.Context, uri, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        uri,
		Password:    password,
		DB:          0,
		DialTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
