package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("idempotency key not found")
	ErrHashMismatch = errors.New("idempotency key body mismatch")
	ErrInProgress   = errors.New("idempotency key in progress")
)

const redisKeyPrefix = "idempotency"

type Record struct {
	Key         string
	RequestHash string
	Status      int
	Body        []byte
	ContentType string
}

// Store keeps idempotency reservations and completed responses in Redis. A
// reservation claims the key atomically with SET NX; finalization replaces it
// with the captured response so replays are served without rerunning the
// operation.
type Store struct {
	redis redis.Cmdable
	ttl   time.Duration
}

func NewStore(redis redis.Cmdable, ttl time.Duration) *Store {
	return &Store{redis: redis, ttl: ttl}
}

type cacheEnvelope struct {
	Key         string `json:"key"`
	Hash        string `json:"hash"`
	InProgress  bool   `json:"in_progress"`
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
}

// Lookup returns the completed record for key, ErrNotFound when the key is
// unknown, ErrInProgress while the first request is still running, and
// ErrHashMismatch when key is reused with a different request body.
func (s *Store) Lookup(ctx context.Context, key, requestHash string) (*Record, error) {
	val, err := s.redis.Get(ctx, redisKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	}

	var env cacheEnvelope
	if err := json.Unmarshal([]byte(val), &env); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	if env.Hash != requestHash {
		return nil, ErrHashMismatch
	}
	if env.InProgress {
		return nil, ErrInProgress
	}
	return &Record{
		Key:         env.Key,
		RequestHash: env.Hash,
		Status:      env.Status,
		Body:        env.Body,
		ContentType: env.ContentType,
	}, nil
}

// Reserve claims the key for this request. It returns false when another
// request already holds the key.
func (s *Store) Reserve(ctx context.Context, key, requestHash string) (bool, error) {
	payload, err := json.Marshal(cacheEnvelope{Key: key, Hash: requestHash, InProgress: true})
	if err != nil {
		return false, fmt.Errorf("marshal idempotency reservation: %w", err)
	}
	ok, err := s.redis.SetNX(ctx, redisKey(key), payload, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Finalize stores the response under the reserved key so replays can be
// served from the record.
func (s *Store) Finalize(ctx context.Context, key, requestHash string, status int, body []byte, contentType string) (*Record, error) {
	rec := &Record{
		Key:         key,
		RequestHash: requestHash,
		Status:      status,
		Body:        body,
		ContentType: contentType,
	}
	payload, err := json.Marshal(cacheEnvelope{
		Key:         key,
		Hash:        requestHash,
		Status:      status,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal idempotency record: %w", err)
	}
	if err := s.redis.Set(ctx, redisKey(key), payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("finalize idempotency key: %w", err)
	}
	return rec, nil
}

// Release drops a reservation whose request failed before producing a
// response, so the client can safely retry with the same key.
func (s *Store) Release(ctx context.Context, key string) {
	if err := s.redis.Del(ctx, redisKey(key)).Err(); err != nil {
		zap.L().Warn("release idempotency key failed", zap.Error(err))
	}
}

// WaitForCompletion polls until a concurrent holder of the key finalizes its
// response, then returns that record.
func (s *Store) WaitForCompletion(ctx context.Context, key, requestHash string) (*Record, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		rec, err := s.Lookup(ctx, key, requestHash)
		if err == nil {
			return rec, nil
		}
		if errors.Is(err, ErrInProgress) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-ticker.C:
				continue
			}
		}
		return nil, err
	}
}

func redisKey(key string) string {
	return fmt.Sprintf("%s:%s", redisKeyPrefix, key)
}
