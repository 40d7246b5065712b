package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/growup/backend/internal/models"
	"go.uber.org/zap"
)

const keyPrefix = "growup:session:"

// redisStore keeps sessions in Redis with a TTL equal to the session lifetime
type redisStore struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, logger *zap.Logger) *redisStore {
	return &redisStore{
		redis:  client,
		logger: logger,
	}
}

func sessionKey(id string) string {
	return keyPrefix + id
}

func userKey(userID string) string {
	return keyPrefix + "user:" + userID
}

// Create stores a session and indexes it under its user
func (s *redisStore) Create(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s is already expired", session.ID)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.ID), payload, ttl)
		pipe.SAdd(ctx, userKey(session.UserID), session.ID)
		pipe.ExpireAt(ctx, userKey(session.UserID), session.ExpiresAt)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to store session", zap.Error(err), zap.String("user_id", session.UserID))
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get returns the session with id or models.ErrNoSession
func (s *redisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	payload, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNoSession
	}
	if err != nil {
		s.logger.Error("failed to read session", zap.Error(err))
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.Expired(time.Now()) {
		return nil, models.ErrNoSession
	}
	return &session, nil
}

// Delete removes the session with id
func (s *redisStore) Delete(ctx context.Context, id string) error {
	session, err := s.Get(ctx, id)
	if errors.Is(err, models.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, userKey(session.UserID), id)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to delete session", zap.Error(err))
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUser removes every session of userID
func (s *redisStore) DeleteByUser(ctx context.Context, userID string) error {
	ids, err := s.redis.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		s.logger.Error("failed to list user sessions", zap.Error(err), zap.String("user_id", userID))
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userKey(userID))

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		s.logger.Error("failed to delete user sessions", zap.Error(err), zap.String("user_id", userID))
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}
