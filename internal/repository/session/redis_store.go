package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
)

const keyPrefix = "session:"

// kv is the subset of redis.Cmdable the store needs.
type kv interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type collector interface {
	ObserveLatency(op string, d time.Duration)
	IncrementCounter(op string, err error)
}

// RedisStore keeps sessions as JSON values that expire with the session.
type RedisStore struct {
	client  kv
	logger  zerolog.Logger
	metrics collector
}

func NewRedisStore(client kv, logger zerolog.Logger, m collector) *RedisStore {
	logger = logger.With().Str("component", "SessionStore").Logger()
	return &RedisStore{client: client, logger: logger, metrics: m}
}

func (s *RedisStore) Save(ctx context.Context, sess models.Session) (err error) {
	defer s.track("save", time.Now(), &err)

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.Token)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	if err = s.client.Set(ctx, keyPrefix+sess.Token, data, ttl).Err(); err != nil {
		s.logger.Error().Ctx(ctx).Err(err).Int64("user_id", sess.UserID).Msg("session write failed")
		return err
	}

	s.logger.Debug().Ctx(ctx).Int64("user_id", sess.UserID).Dur("ttl", ttl).Msg("session stored")
	return nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (sess models.Session, err error) {
	defer s.track("get", time.Now(), &err)

	data, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, models.ErrSessionNotFound
		}
		s.logger.Error().Ctx(ctx).Err(err).Msg("session read failed")
		return models.Session{}, err
	}

	if err = json.Unmarshal(data, &sess); err != nil {
		s.logger.Error().Ctx(ctx).Err(err).Msg("failed to unmarshal session")
		return models.Session{}, fmt.Errorf("unmarshal: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) (err error) {
	defer s.track("delete", time.Now(), &err)

	if err = s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		s.logger.Error().Ctx(ctx).Err(err).Msg("session delete failed")
		return err
	}
	return nil
}

func (s *RedisStore) track(op string, start time.Time, err *error) {
	s.metrics.ObserveLatency(op, time.Since(start))
	if errors.Is(*err, models.ErrSessionNotFound) {
		s.metrics.IncrementCounter(op, nil)
		return
	}
	s.metrics.IncrementCounter(op, *err)
}
