package crawler

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSeenSet is a SeenSet stored in a Redis set, so several crawler
// processes can share one crawl's deduplication state.
//
// SADD replies with the number of members actually added, which makes
// it an atomic insert-if-absent on the server side.
type RedisSeenSet struct {
	client redis.UniversalClient
	key    string
}

// NewRedisSeenSet uses the Redis set at key. The set is not cleared;
// call Reset to start a fresh crawl under an existing key.
func NewRedisSeenSet(client redis.UniversalClient, key string) *RedisSeenSet {
	return &RedisSeenSet{client: client, key: key}
}

// Add implements SeenSet.
func (s *RedisSeenSet) Add(ctx context.Context, url string) (bool, error) {
	n, err := s.client.SAdd(ctx, s.key, url).Result()
	if err != nil {
		return false, fmt.Errorf("redis SADD %s: %w", s.key, err)
	}
	return n == 1, nil
}

// Contains implements SeenSet.
func (s *RedisSeenSet) Contains(ctx context.Context, url string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, url).Result()
	if err != nil {
		return false, fmt.Errorf("redis SISMEMBER %s: %w", s.key, err)
	}
	return ok, nil
}

// Members implements SeenSet.
func (s *RedisSeenSet) Members(ctx context.Context) ([]string, error) {
	urls, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis SMEMBERS %s: %w", s.key, err)
	}
	return urls, nil
}

// Len implements SeenSet.
func (s *RedisSeenSet) Len(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis SCARD %s: %w", s.key, err)
	}
	return int(n), nil
}

// Reset deletes the set.
func (s *RedisSeenSet) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis DEL %s: %w", s.key, err)
	}
	return nil
}
