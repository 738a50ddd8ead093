package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Host     string
	Port     string
	Password string
	DB       int

	// Retries bounds the exponential backoff while waiting for the first PONG.
	Retries uint64
}

func NewRedisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%s", opts.Host, opts.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), opts.Retries), ctx)

	err := backoff.Retry(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logrus.WithError(err).WithField("addr", addr).Warn("redis not reachable, retrying")
			return err
		}
		return nil
	}, policy)
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return rdb, nil
}
