// internal/stores/prefstore/store.go
// Package prefstore keeps per-user ranking preferences in Redis. Preferences
// are optional input to ranking, so a missing key is not an error.
package prefstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	stderrors "yojana-workers/internal/common/errors"
	"yojana-workers/internal/common/logger"
	"yojana-workers/internal/models"
)

const cacheKeyPrefix = "prefs:"

type Store struct {
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func New(rdb *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"store": "preferences"}),
	}
}

// GetPreferences returns the stored preferences for a user, or nil when the
// user never saved any. Callers fall back to default weights on nil.
func (s *Store) GetPreferences(ctx context.Context, userID string) (*models.Preferences, error) {
	val, err := s.redis.Get(ctx, cacheKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("preferences", err)
	}

	var prefs models.Preferences
	if err := json.Unmarshal([]byte(val), &prefs); err != nil {
		// A corrupt entry should not block matching. Drop it and rank
		// with defaults.
		s.logger.Warn("dropping unreadable preferences entry", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		_ = s.redis.Del(ctx, cacheKeyPrefix+userID).Err()
		return nil, nil
	}
	return &prefs, nil
}

// SavePreferences validates and stores preferences. Weights, when present,
// must sum to one.
func (s *Store) SavePreferences(ctx context.Context, userID string, prefs *models.Preferences) error {
	if prefs.Weights != nil {
		sum := prefs.Weights.Sum()
		if sum < 0.999 || sum > 1.001 {
			return stderrors.NewSchemeDataInvalidError(userID, "preference weights must sum to 1.0")
		}
	}

	data, err := json.Marshal(prefs)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("preferences", err)
	}
	if err := s.redis.Set(ctx, cacheKeyPrefix+userID, data, s.ttl).Err(); err != nil {
		return stderrors.NewQueryExecutionFailedError("preferences", err)
	}
	return nil
}
