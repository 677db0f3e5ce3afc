package holdings

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"CoinSentinel/internal/logger"
	"CoinSentinel/internal/model"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CoinsKey string
	HeldKey  string
}

// RedisStore keeps each coin document as a JSON string under its own key.
type RedisStore struct {
	client   *goredis.Client
	coinsKey string
	heldKey  string
}

// NewRedisStore connects to Redis and pings the server.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	coinsKey := cfg.CoinsKey
	if coinsKey == "" {
		coinsKey = "coinsentinel:coins"
	}
	heldKey := cfg.HeldKey
	if heldKey == "" {
		heldKey = "coinsentinel:held"
	}

	logger.Info("redis store connected to %s (coins=%s, held=%s)", cfg.Addr, coinsKey, heldKey)
	return &RedisStore{client: client, coinsKey: coinsKey, heldKey: heldKey}, nil
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) LoadCoins(ctx context.Context) (model.CoinsDataMap, error) {
	return s.get(ctx, s.coinsKey)
}

func (s *RedisStore) SaveCoins(ctx context.Context, coins model.CoinsDataMap) error {
	return s.set(ctx, s.coinsKey, coins)
}

func (s *RedisStore) LoadHeld(ctx context.Context) (model.CoinsDataMap, error) {
	return s.get(ctx, s.heldKey)
}

func (s *RedisStore) SaveHeld(ctx context.Context, held model.CoinsDataMap) error {
	return s.set(ctx, s.heldKey, held)
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) get(ctx context.Context, key string) (model.CoinsDataMap, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return model.CoinsDataMap{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeDocument(data)
}

func (s *RedisStore) set(ctx context.Context, key string, coins model.CoinsDataMap) error {
	data, err := encodeDocument(coins)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
