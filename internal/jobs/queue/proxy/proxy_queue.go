package proxyqueue

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"proxycheck/internal/domain"
	"proxycheck/internal/support"
)

const pushBatchSize = 500

// RedisProxyQueue reads pending proxies from a Redis list of host:port
// strings.
type RedisProxyQueue struct {
	client *redis.Client
	key    string
}

func NewRedisProxyQueue(client *redis.Client, key string) *RedisProxyQueue {
	return &RedisProxyQueue{
		client: client,
		key:    key,
	}
}

// Load returns the whole list in list order. Entries are normalized like
// lines of a proxy file, blank ones are skipped.
func (rpq *RedisProxyQueue) Load(ctx context.Context) ([]domain.ProxyAddress, error) {
	values, err := rpq.client.LRange(ctx, rpq.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("proxyqueue: lrange %s: %w", rpq.key, err)
	}

	addresses := support.ParseTextToProxies(strings.Join(values, "\n"))

	log.Debug("Loaded proxies from redis", "key", rpq.key, "count", len(addresses))
	return addresses, nil
}

// AddToQueue appends addresses to the list, pipelined in batches.
func (rpq *RedisProxyQueue) AddToQueue(ctx context.Context, addresses []domain.ProxyAddress) error {
	pipe := rpq.client.Pipeline()

	for i, address := range addresses {
		pipe.RPush(ctx, rpq.key, address.String())

		// Execute in batches to prevent oversized pipelines
		if i%pushBatchSize == 0 && i > 0 {
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("batch pipeline failed: %w", err)
			}
			pipe = rpq.client.Pipeline()
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("final pipeline exec failed: %w", err)
	}

	return nil
}

func (rpq *RedisProxyQueue) GetProxyCount(ctx context.Context) (int64, error) {
	return rpq.client.LLen(ctx, rpq.key).Result()
}
