// Package cache holds browser-scoped state keyed by visitor id: the recent
// search list and the beat edit draft.
package cache

import (
	"context"
	"errors"
	"strings"

	"github.com/heronhoga/bars-fe/config"
	"github.com/heronhoga/bars-fe/logger"
	"github.com/heronhoga/bars-fe/model"
)

// MaxRecentSearches is how many queries are remembered per visitor.
const MaxRecentSearches = 5

// ErrNotFound is returned when no draft exists for the beat.
var ErrNotFound = errors.New("cache: not found")

// RecentSearches remembers the last unique queries, newest first.
type RecentSearches interface {
	Recent(ctx context.Context, visitor string) ([]string, error)
	AddRecent(ctx context.Context, visitor, query string) ([]string, error)
	ClearRecent(ctx context.Context, visitor string) error
}

// Drafts keeps the beat a visitor is editing so the edit page can prefill.
type Drafts interface {
	SaveDraft(ctx context.Context, visitor string, beat model.Beat) error
	Draft(ctx context.Context, visitor, beatID string) (model.Beat, error)
	DeleteDraft(ctx context.Context, visitor string) error
}

// Store is both stores behind one backend.
type Store interface {
	RecentSearches
	Drafts
	Close() error
}

// pushRecent moves query to the front, dropping duplicates and the overflow.
func pushRecent(list []string, query string) []string {
	out := make([]string, 0, MaxRecentSearches)
	out = append(out, query)
	for _, q := range list {
		if q == query {
			continue
		}
		if len(out) == MaxRecentSearches {
			break
		}
		out = append(out, q)
	}
	return out
}

func normalizeQuery(q string) string {
	return strings.TrimSpace(q)
}

// Open returns a redis-backed store when cfg names a redis host, otherwise an in-memory one.
func Open(cfg *config.Config) (Store, error) {
	if !cfg.RedisEnabled() {
		logger.Info("Redis not configured, using in-memory visitor store")
		return NewMemoryStore(), nil
	}
	client, err := ConnectRedis(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Redis connected", logger.String("addr", cfg.RedisAddr()))
	return NewRedisStore(client, 0), nil
}
