package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

const redisKeyPrefix = "taskboard:session:"

// RedisStore keeps sessions in redis. Keys expire with the session's absolute lifetime,
// so no sweeper is needed.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type redisSession struct {
	UserID     int64     `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	var rs redisSession
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &domain.Session{
		ID:         id,
		UserID:     rs.UserID,
		CreatedAt:  rs.CreatedAt,
		LastSeenAt: rs.LastSeenAt,
		ExpiresAt:  rs.ExpiresAt,
	}, nil
}

func (s *RedisStore) Set(ctx context.Context, sess *domain.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return s.Destroy(ctx, sess.ID)
	}
	raw, err := encodeSession(sess)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(sess.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Touch rewrites an existing key only (SET XX) and keeps its expiry.
func (s *RedisStore) Touch(ctx context.Context, sess *domain.Session) error {
	raw, err := encodeSession(sess)
	if err != nil {
		return err
	}
	err = s.client.SetArgs(ctx, redisKey(sess.ID), raw, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: %w", repository.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func encodeSession(sess *domain.Session) ([]byte, error) {
	raw, err := json.Marshal(redisSession{
		UserID:     sess.UserID,
		CreatedAt:  sess.CreatedAt,
		LastSeenAt: sess.LastSeenAt,
		ExpiresAt:  sess.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return raw, nil
}

func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

var _ Store = (*RedisStore)(nil)
