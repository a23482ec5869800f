package redis

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/memora-app/memora/models"
	"github.com/redis/go-redis/v9"
)

type RedisContentCache struct {
	client redis.UniversalClient
}

func NewRedisContentCache(ctx context.Context, devMode bool, redisEndpoint string) (*RedisContentCache, error) {
	var client redis.UniversalClient
	if devMode {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
			// AWS elasticache endpoints require TLS
			TLSConfig: &tls.Config{},
		})
	}

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return &RedisContentCache{client: client}, nil
}

func (redisCache *RedisContentCache) Publish(ctx context.Context, channel string, message []byte) error {
	if err := redisCache.client.Publish(ctx, channel, message).Err(); err != nil {
		return err
	}
	return nil
}

func (redisCache *RedisContentCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	pubsub := redisCache.client.Subscribe(ctx, channel)
	// Ensure subscription is established
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		log.Printf("Pubsub channel closed: %s", channel)
		return err
	}

	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	return nil
}

// Hash tags keep a record's key on one cluster slot.
func buildRecordKey(kind models.Kind, id string) string {
	return "rec:{" + string(kind) + "#" + id + "}"
}

const cacheTTL = 10 * time.Minute

func (redisCache *RedisContentCache) GetRecord(ctx context.Context, kind models.Kind, id string) ([]byte, error) {
	val, err := redisCache.client.Get(ctx, buildRecordKey(kind, id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}
	return val, nil
}

func (redisCache *RedisContentCache) SetRecord(ctx context.Context, kind models.Kind, id string, data []byte) error {
	return redisCache.client.Set(ctx, buildRecordKey(kind, id), data, cacheTTL).Err()
}

func (redisCache *RedisContentCache) InvalidateRecord(ctx context.Context, kind models.Kind, id string) error {
	return redisCache.client.Del(ctx, buildRecordKey(kind, id)).Err()
}
