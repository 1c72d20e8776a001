package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "chat:session:"

// RedisStore keeps sessions in Redis so that every instance of the
// service sees the same conversation state.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, phone string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+phone).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", phone, err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", phone, err)
	}
	return &session, nil
}

func (s *RedisStore) Put(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.Phone, err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.Phone, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session %s: %w", session.Phone, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, phone string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+phone).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", phone, err)
	}
	return nil
}
