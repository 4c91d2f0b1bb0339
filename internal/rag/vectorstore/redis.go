package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	errx "github.com/renal-diet-poc/server/internal/core/error"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

// listClient is the part of redis.Cmdable the store needs.
type listClient interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore persists chunks as JSON records in a Redis list and serves
// searches from an in-memory copy loaded on first use.
type RedisStore struct {
	rdb listClient
	key string

	mu     sync.Mutex
	loaded bool
	cache  *MemoryStore
}

func NewRedisStore(rdb listClient, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, cache: NewMemoryStore()}
}

func (s *RedisStore) Add(ctx context.Context, docs []*schema.Document, vectors [][]float64) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs and vectors length mismatch: %d != %d", len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	values := make([]interface{}, 0, len(docs))
	for i, d := range docs {
		b, err := encodeRecord(d, vectors[i])
		if err != nil {
			logx.Error().Err(err).Str("id", d.ID).Msg("failed to marshal chunk")
			return err
		}
		values = append(values, b)
	}

	if err := s.rdb.RPush(ctx, s.key, values...).Err(); err != nil {
		logx.Error().Err(err).Str("key", s.key).Msg("failed to push chunks to redis")
		return errx.WrapRedis(err)
	}
	return s.cache.Add(ctx, docs, vectors)
}

func (s *RedisStore) Search(ctx context.Context, vector []float64, k int) ([]Match, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.cache.Search(ctx, vector, k)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		logx.Error().Err(err).Str("key", s.key).Msg("failed to delete chunks from redis")
		return errx.WrapRedis(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	return s.cache.Clear(ctx)
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.rdb.LLen(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", s.key).Msg("failed to count chunks in redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

// ensureLoaded hydrates the cache once. A failed load is retried on the next call.
func (s *RedisStore) ensureLoaded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	rows, err := s.rdb.LRange(ctx, s.key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", s.key).Msg("failed to load chunks from redis")
		return errx.WrapRedis(err)
	}

	docs := make([]*schema.Document, 0, len(rows))
	vectors := make([][]float64, 0, len(rows))
	for i, row := range rows {
		d, vec, err := decodeRecord([]byte(row))
		if err != nil {
			logx.Error().Err(err).Str("key", s.key).Int("index", i).Msg("failed to unmarshal chunk")
			return fmt.Errorf("unmarshal chunk at index %d: %w", i, err)
		}
		docs = append(docs, d)
		vectors = append(vectors, vec)
	}
	if err := s.cache.Clear(ctx); err != nil {
		return err
	}
	if err := s.cache.Add(ctx, docs, vectors); err != nil {
		return err
	}
	s.loaded = true
	logx.Debug().Str("key", s.key).Int("chunks", len(docs)).Msg("vector cache loaded from redis")
	return nil
}

var _ Store = (*RedisStore)(nil)
