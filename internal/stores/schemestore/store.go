// internal/stores/schemestore/store.go
// Package schemestore supplies the scheme catalog: PostgreSQL is
// authoritative, Redis caches the active snapshot, Elasticsearch serves
// keyword/region pre-filtering. The matching engine re-checks isActive and
// deadline on every scheme, so a slightly stale snapshot is safe.
package schemestore

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

const snapshotCacheKey = "schemes:active"

type Store struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func New(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *Store {
	return &Store{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"store": "scheme"}),
	}
}

const schemeColumns = `id, name, description, category, benefit_amount, deadline, is_active, criteria, apply_url`

// ActiveSchemes returns the catalog snapshot considered active as of now.
// Deadline filtering is delegated partially to SQL; the engine re-checks.
func (s *Store) ActiveSchemes(ctx context.Context) ([]models.Scheme, error) {
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, snapshotCacheKey).Result(); err == nil {
			var schemes []models.Scheme
			if err := json.Unmarshal([]byte(val), &schemes); err == nil {
				return schemes, nil
			}
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+schemeColumns+`
		FROM schemes
		WHERE is_active = TRUE AND deadline >= NOW()
		ORDER BY id`)
	if err != nil {
		return nil, stderrors.NewSchemeStoreUnavailableError(err)
	}
	defer rows.Close()

	var schemes []models.Scheme
	for rows.Next() {
		scheme, err := scanScheme(rows)
		if err != nil {
			return nil, stderrors.NewQueryExecutionFailedError("scheme", err)
		}
		schemes = append(schemes, *scheme)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("scheme", err)
	}

	if s.redis != nil {
		if data, err := json.Marshal(schemes); err == nil {
			if err := s.redis.Set(ctx, snapshotCacheKey, data, s.cacheTTL).Err(); err != nil {
				s.logger.Debug("snapshot cache write failed", map[string]interface{}{"error": err})
			}
		}
	}
	return schemes, nil
}

// GetScheme fetches a single scheme by id, bypassing the snapshot cache so
// explain queries always see the stored record.
func (s *Store) GetScheme(ctx context.Context, schemeID string) (*models.Scheme, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+schemeColumns+`
		FROM schemes WHERE id = $1`, schemeID)

	scheme, err := scanScheme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stderrors.NewSchemeNotFoundError(schemeID)
	}
	if err != nil {
		return nil, stderrors.NewSchemeStoreUnavailableError(err)
	}
	return scheme, nil
}

// UpsertScheme writes one catalog entry; used by the catalog loader.
func (s *Store) UpsertScheme(ctx context.Context, scheme *models.Scheme) error {
	criteria, err := json.Marshal(scheme.Criteria)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("scheme", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schemes (id, name, description, category, benefit_amount, deadline, is_active, criteria, apply_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			benefit_amount = EXCLUDED.benefit_amount,
			deadline = EXCLUDED.deadline,
			is_active = EXCLUDED.is_active,
			criteria = EXCLUDED.criteria,
			apply_url = EXCLUDED.apply_url`,
		scheme.ID, scheme.Name, scheme.Description, scheme.Category,
		scheme.BenefitAmount, scheme.Deadline, scheme.IsActive, criteria, scheme.ApplyURL)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("scheme", err)
	}

	if s.redis != nil {
		// Snapshot is stale after any write.
		_ = s.redis.Del(ctx, snapshotCacheKey).Err()
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScheme(row rowScanner) (*models.Scheme, error) {
	var (
		scheme      models.Scheme
		description sql.NullString
		category    sql.NullString
		applyURL    sql.NullString
		criteria    []byte
	)
	err := row.Scan(&scheme.ID, &scheme.Name, &description, &category,
		&scheme.BenefitAmount, &scheme.Deadline, &scheme.IsActive, &criteria, &applyURL)
	if err != nil {
		return nil, err
	}
	scheme.Description = description.String
	scheme.Category = category.String
	scheme.ApplyURL = applyURL.String
	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &scheme.Criteria); err != nil {
			return nil, err
		}
	}
	return &scheme, nil
}
