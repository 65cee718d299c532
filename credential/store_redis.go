package credential

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the slot key used when no override is configured.
const DefaultRedisKey = "keyfall:credentials"

// DefaultRedisTTL bounds how long a cached list survives without a refresh
// when the slot lives in Redis.
const DefaultRedisTTL = 12 * time.Hour

// RedisStore keeps the session slot in Redis so several processes serving
// one session share a single credential list. Read semantics match
// SessionStore: anything that does not decode as a non-empty list reads as
// not-found, including Redis errors.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisKey overrides the slot key.
func WithRedisKey(key string) RedisOption {
	return func(s *RedisStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithRedisTTL overrides the slot expiry. Zero disables expiry.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		key:    DefaultRedisKey,
		ttl:    DefaultRedisTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Get(ctx context.Context) ([]Credential, bool) {
	if s == nil || s.client == nil {
		return nil, false
	}
	raw, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		return nil, false
	}
	return decodeList(raw)
}

func (s *RedisStore) Put(ctx context.Context, creds []Credential) error {
	if s == nil || s.client == nil {
		return nil
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, string(data), s.ttl).Err()
}
