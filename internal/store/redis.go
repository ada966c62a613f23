package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/markmdev/networking-copilot/internal/model"
)

const (
	redisIndexKey  = "people:index"
	redisDataKey   = "people:data:"
	defaultAddress = "localhost:6379"
)

// RedisOptions configures the redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore implements Store on redis. Records live under people:data:{id}
// and people:index is a newest-first list of ids.
type RedisStore struct {
	client *redis.Client
}

// NewRedis connects to redis and verifies the connection.
func NewRedis(opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		opts.Addr = defaultAddress
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "redis: ping")
	}
	return &RedisStore{client: client}, nil
}

// Migrate is a no-op; redis needs no schema.
func (s *RedisStore) Migrate(context.Context) error { return nil }

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) PutRecord(ctx context.Context, rec *model.Record) error {
	prepare(rec)
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "redis: marshal record")
	}

	ok, err := s.client.SetNX(ctx, redisDataKey+rec.ID, data, 0).Result()
	if err != nil {
		return eris.Wrapf(err, "redis: insert record %s", rec.ID)
	}
	if !ok {
		return eris.Errorf("redis: record %s already exists", rec.ID)
	}
	return eris.Wrapf(s.client.LPush(ctx, redisIndexKey, rec.ID).Err(), "redis: index record %s", rec.ID)
}

func (s *RedisStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	data, err := s.client.Get(ctx, redisDataKey+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "redis: get record %s", id)
	}
	return decodeRecord(data)
}

func (s *RedisStore) ListRecords(ctx context.Context, limit int) ([]model.Record, error) {
	ids, err := s.client.LRange(ctx, redisIndexKey, 0, int64(limitOrDefault(limit)-1)).Result()
	if err != nil {
		return nil, eris.Wrap(err, "redis: list records")
	}
	records := []model.Record{}
	if len(ids) == 0 {
		return records, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisDataKey + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, eris.Wrap(err, "redis: fetch records")
	}
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		rec, err := decodeRecord([]byte(str))
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (s *RedisStore) GetCachedLookup(ctx context.Context, key string) (*model.EnrichmentResult, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "redis: get cached lookup")
	}
	return decodeResult(data)
}

func (s *RedisStore) SetCachedLookup(ctx context.Context, key string, res *model.EnrichmentResult, ttl time.Duration) error {
	data, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "redis: marshal lookup")
	}
	return eris.Wrap(s.client.Set(ctx, key, data, ttl).Err(), "redis: set cached lookup")
}
