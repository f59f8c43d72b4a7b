package internal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "context-capture:"

// RedisStore is a KeyValueStore shared between machines through Redis.
// Session ids are advisory correlation keys, so a TTL may expire them.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore wraps an existing client. A zero ttl keeps keys forever.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// OpenRedisStore connects to redisURL and verifies the connection
func OpenRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, &StorageError{Path: redisURL, Op: "open", Err: err}
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, &StorageError{Path: redisURL, Op: "ping", Err: err}
	}
	return NewRedisStore(rdb, ttl), nil
}

// Get reads a key
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.rdb.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Path: key, Op: "get", Err: fmt.Errorf("failed to load key: %w", err)}
	}
	return value, true, nil
}

// Set writes a key
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, redisKeyPrefix+key, value, s.ttl).Err(); err != nil {
		return &StorageError{Path: key, Op: "set", Err: fmt.Errorf("failed to save key: %w", err)}
	}
	return nil
}

// List returns all pairs whose key starts with prefix, sorted by key
func (s *RedisStore) List(ctx context.Context, prefix string) ([]KeyValuePair, error) {
	match := redisKeyPrefix + globEscaper.Replace(prefix) + "*"
	var keys []string
	iter := s.rdb.Scan(ctx, 0, match, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, &StorageError{Path: prefix, Op: "list", Err: fmt.Errorf("failed to scan keys: %w", err)}
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, &StorageError{Path: prefix, Op: "list", Err: fmt.Errorf("failed to load keys: %w", err)}
	}
	pairs := make([]KeyValuePair, 0, len(keys))
	for i, key := range keys {
		value, ok := values[i].(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}
		pairs = append(pairs, KeyValuePair{Key: strings.TrimPrefix(key, redisKeyPrefix), Value: value})
	}
	return pairs, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// Close closes the client
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
