package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed Store implementation.
//
// Values live under Prefix+key with native TTLs. A sorted-set index under
// Prefix+"index" records first-write time so ListAll can report insertion
// order; index members whose value has since expired are dropped lazily.
type RedisStore struct {
	client *redis.Client
	prefix string
}

const indexSuffix = "index"

// NewRedisStore creates a store on the given client. All keys are namespaced
// under prefix, which keeps cache data apart from anything else on the same
// Redis database.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) dataKey(key string) string { return s.prefix + key }
func (s *RedisStore) indexKey() string          { return s.prefix + indexSuffix }

// Get retrieves a value. Returns (nil, false, nil) when absent or expired.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.dataKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores a value with the given TTL and records the key in the insertion
// index. ZAddNX keeps the original first-write score on overwrite.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	if ttl > 0 {
		pipe.Set(ctx, s.dataKey(key), value, ttl)
	} else {
		pipe.Set(ctx, s.dataKey(key), value, 0)
	}
	pipe.ZAddNX(ctx, s.indexKey(), redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: key,
	})
	_, err := pipe.Exec(ctx)
	return err
}

// DeleteMatching removes every indexed key matching any pattern.
func (s *RedisStore) DeleteMatching(ctx context.Context, patterns []string) (int64, error) {
	if len(patterns) == 0 {
		return 0, nil
	}

	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return 0, err
	}

	var matched []string
	for _, key := range keys {
		for _, pattern := range patterns {
			if MatchPattern(pattern, key) {
				matched = append(matched, key)
				break
			}
		}
	}
	if len(matched) == 0 {
		return 0, nil
	}

	dataKeys := make([]string, len(matched))
	for i, key := range matched {
		dataKeys[i] = s.dataKey(key)
	}

	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, dataKeys...)
	members := make([]any, len(matched))
	for i, key := range matched {
		members[i] = key
	}
	pipe.ZRem(ctx, s.indexKey(), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return del.Val(), nil
}

// ListAll returns live entries oldest first, pruning index members whose
// value has expired out from under them.
func (s *RedisStore) ListAll(ctx context.Context) ([]Entry, error) {
	keys, err := s.client.ZRangeWithScores(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(keys))
	var stale []any
	for _, z := range keys {
		key, ok := z.Member.(string)
		if !ok {
			continue
		}
		value, err := s.client.Get(ctx, s.dataKey(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			stale = append(stale, key)
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: key, Value: value, Seq: int64(z.Score)})
	}

	if len(stale) > 0 {
		_ = s.client.ZRem(ctx, s.indexKey(), stale...).Err()
	}
	return entries, nil
}

// TotalBytes sums STRLEN over all live keys.
func (s *RedisStore) TotalBytes(ctx context.Context) (int64, error) {
	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, key := range keys {
		n, err := s.client.StrLen(ctx, s.dataKey(key)).Result()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)
