// internal/stores/profilestore/store.go
// Package profilestore fetches validated citizen profiles from PostgreSQL
// with a Redis read-through cache. Validation is owned by the profile
// collection service; this store only deserializes.
package profilestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	stderrors "yojana-workers/internal/common/errors"
	"yojana-workers/internal/common/logger"
	"yojana-workers/internal/models"
)

const cacheKeyPrefix = "profile:"

type Store struct {
	db     *sql.DB
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func New(db *sql.DB, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		db:     db,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"store": "profile"}),
	}
}

// GetProfile returns the profile by id, trying the cache first. Cache
// failures degrade silently to the database.
func (s *Store) GetProfile(ctx context.Context, profileID string) (*models.Profile, error) {
	cacheKey := cacheKeyPrefix + profileID
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var profile models.Profile
			if err := json.Unmarshal([]byte(val), &profile); err == nil {
				return &profile, nil
			}
		}
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, age, annual_income, education_level, state, district, social_category, occupation
		FROM profiles WHERE id = $1`, profileID)

	var (
		profile   models.Profile
		income    sql.NullFloat64
		education sql.NullString
		state     sql.NullString
		district  sql.NullString
		category  sql.NullString
		job       sql.NullString
	)
	err := row.Scan(&profile.ID, &profile.Age, &income, &education, &state, &district, &category, &job)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stderrors.NewProfileNotFoundError(profileID)
	}
	if err != nil {
		return nil, stderrors.NewProfileStoreUnavailableError(err)
	}

	if income.Valid {
		profile.AnnualIncome = &income.Float64
	}
	profile.EducationLevel = models.EducationLevel(education.String)
	profile.State = state.String
	profile.District = district.String
	profile.SocialCategory = models.SocialCategory(category.String)
	profile.Occupation = job.String

	if s.redis != nil {
		if data, err := json.Marshal(&profile); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, s.ttl).Err(); err != nil {
				s.logger.Debug("profile cache write failed", map[string]interface{}{
					"profileId": profileID,
					"error":     err,
				})
			}
		}
	}

	return &profile, nil
}

// Invalidate drops a cached profile after the collection service reports an
// update.
func (s *Store) Invalidate(ctx context.Context, profileID string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, cacheKeyPrefix+profileID).Err()
}
