package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	sessionKeyPrefix = "talkroom:session:"
	userKeyPrefix    = "talkroom:user_sessions:"
)

// RedisStore keeps each session under its own key with a TTL matching its
// expiry, plus a per-user set of session IDs for bulk revocation.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisStore connects to the Redis server at url and pings it.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{rdb: rdb, now: time.Now}, nil
}

type redisRecord struct {
	UserID    string    `json:"uid"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func userKey(id uuid.UUID) string {
	return userKeyPrefix + id.String()
}

func encodeSession(s *Session) ([]byte, error) {
	return json.Marshal(redisRecord{UserID: s.UserID.String(), CreatedAt: s.CreatedAt, ExpiresAt: s.ExpiresAt})
}

func decodeSession(id string, data []byte) (*Session, error) {
	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	userID, err := uuid.Parse(rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return &Session{ID: id, UserID: userID, CreatedAt: rec.CreatedAt, ExpiresAt: rec.ExpiresAt}, nil
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	data, err := encodeSession(s)
	if err != nil {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(s.ID), data, ttl)
		pipe.SAdd(ctx, userKey(s.UserID), s.ID)
		pipe.Expire(ctx, userKey(s.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	s, err := decodeSession(id, data)
	if err != nil {
		return nil, err
	}
	if s.Expired(r.now()) {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, userKey(s.UserID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteByUser(ctx context.Context, userID uuid.UUID, keep string) error {
	ids, err := r.rdb.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}

	var drop []string
	for _, id := range ids {
		if id != keep {
			drop = append(drop, id)
		}
	}
	if len(drop) == 0 {
		return nil
	}

	keys := make([]string, len(drop))
	members := make([]any, len(drop))
	for i, id := range drop {
		keys[i] = sessionKey(id)
		members[i] = id
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.SRem(ctx, userKey(userID), members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis expires session keys itself.
func (r *RedisStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
