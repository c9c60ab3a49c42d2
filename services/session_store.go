package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the server side state behind a session key.
type Session struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps login sessions addressed by an opaque key.
type SessionStore interface {
	Create(ctx context.Context, session Session) (string, error)
	Get(ctx context.Context, key string) (*Session, error)
	Delete(ctx context.Context, key string) error
}

type RedisSessionStore struct {
	client redisKV
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) getKey(key string) string {
	return fmt.Sprintf("session:%s", key)
}

func (s *RedisSessionStore) Create(ctx context.Context, session Session) (string, error) {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(session)
	if err != nil {
		return "", err
	}
	key := uuid.NewString()
	if err := s.client.Set(ctx, s.getKey(key), data, s.ttl).Err(); err != nil {
		return "", err
	}
	return key, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, key string) (*Session, error) {
	if key == "" {
		return nil, ErrSessionNotFound
	}
	data, err := s.client.Get(ctx, s.getKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.getKey(key)).Err()
}
