package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heronhoga/bars-fe/logger"
	"github.com/heronhoga/bars-fe/model"
)

// RedisStore keeps visitor state in redis with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client; ttl <= 0 defaults to 30 days.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func recentKey(visitor string) string {
	return fmt.Sprintf("bars:recent:%s", visitor)
}

func draftKey(visitor string) string {
	return fmt.Sprintf("bars:draft:%s", visitor)
}

// Recent returns the visitor's recent searches, newest first.
func (s *RedisStore) Recent(ctx context.Context, visitor string) ([]string, error) {
	list, err := s.client.LRange(ctx, recentKey(visitor), 0, MaxRecentSearches-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent searches: %w", err)
	}
	return list, nil
}

// AddRecent records query and returns the updated list.
func (s *RedisStore) AddRecent(ctx context.Context, visitor, query string) ([]string, error) {
	query = normalizeQuery(query)
	if query == "" {
		return s.Recent(ctx, visitor)
	}
	key := recentKey(visitor)

	var lrange *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, key, 0, query)
		pipe.LPush(ctx, key, query)
		pipe.LTrim(ctx, key, 0, MaxRecentSearches-1)
		pipe.Expire(ctx, key, s.ttl)
		lrange = pipe.LRange(ctx, key, 0, MaxRecentSearches-1)
		return nil
	})
	if err != nil {
		logger.Error("Failed to save recent search", logger.String("visitor", visitor), logger.ErrorField(err))
		return nil, fmt.Errorf("failed to save recent search: %w", err)
	}
	return lrange.Val(), nil
}

// ClearRecent forgets every recent search of the visitor.
func (s *RedisStore) ClearRecent(ctx context.Context, visitor string) error {
	if err := s.client.Del(ctx, recentKey(visitor)).Err(); err != nil {
		return fmt.Errorf("failed to clear recent searches: %w", err)
	}
	return nil
}

// SaveDraft replaces the visitor's draft.
func (s *RedisStore) SaveDraft(ctx context.Context, visitor string, beat model.Beat) error {
	data, err := json.Marshal(beat)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(visitor), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Draft returns the draft for beatID, or ErrNotFound.
func (s *RedisStore) Draft(ctx context.Context, visitor, beatID string) (model.Beat, error) {
	data, err := s.client.Get(ctx, draftKey(visitor)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Beat{}, ErrNotFound
	}
	if err != nil {
		return model.Beat{}, fmt.Errorf("failed to get draft: %w", err)
	}

	var beat model.Beat
	if err := json.Unmarshal(data, &beat); err != nil {
		return model.Beat{}, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	if beat.ID != beatID {
		return model.Beat{}, ErrNotFound
	}
	return beat, nil
}

// DeleteDraft removes the visitor's draft.
func (s *RedisStore) DeleteDraft(ctx context.Context, visitor string) error {
	if err := s.client.Del(ctx, draftKey(visitor)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
