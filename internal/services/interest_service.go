package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/neotogether/neotogether/internal/cache"
	"github.com/neotogether/neotogether/internal/database"
	"github.com/neotogether/neotogether/internal/errors"
	"github.com/neotogether/neotogether/internal/telemetry"
)

const interestCatalogCacheKey = "interests:catalog"

// InterestService serves the interest catalog and user interest tags.
// The catalog is read-through cached in Redis when a cache is configured.
type InterestService struct {
	db    *database.DB
	cache *cache.RedisService
}

func NewInterestService(db *database.DB, redisService *cache.RedisService) *InterestService {
	return &InterestService{db: db, cache: redisService}
}

// ListCatalog returns every interest, grouped stably by category then name.
func (s *InterestService) ListCatalog(ctx context.Context) ([]Interest, error) {
	logger := telemetry.LogFromContext(ctx)

	if s.cache != nil {
		var cached []Interest
		err := s.cache.GetJSON(ctx, interestCatalogCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !cache.IsMiss(err) {
			logger.WithError(err).Warn("Interest catalog cache read failed")
		}
	}

	query := `SELECT id, name, category FROM interests ORDER BY category, name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list interests: %w", err)
	}
	defer rows.Close()

	interests := []Interest{}
	for rows.Next() {
		var interest Interest
		if err := rows.Scan(&interest.ID, &interest.Name, &interest.Category); err != nil {
			return nil, fmt.Errorf("failed to scan interest: %w", err)
		}
		interests = append(interests, interest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interests: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, interestCatalogCacheKey, interests, cache.CatalogTTL); err != nil {
			logger.WithError(err).Warn("Interest catalog cache write failed")
		}
	}
	return interests, nil
}

// SetUserInterests replaces a user's interest tags with the given catalog IDs.
func (s *InterestService) SetUserInterests(ctx context.Context, userID string, interestIDs []int64) ([]Interest, error) {
	if len(interestIDs) > 0 {
		var count int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM interests WHERE id = ANY($1)`, pq.Array(interestIDs),
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("failed to validate interest ids: %w", err)
		}
		if count != len(distinct(interestIDs)) {
			return nil, errors.NewValidationError("interest_ids", "one or more interest ids do not exist")
		}
	}

	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_interests WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to clear user interests: %w", err)
		}
		for _, id := range distinct(interestIDs) {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO user_interests (user_id, interest_id) VALUES ($1, $2)`, userID, id)
			if err != nil {
				return fmt.Errorf("failed to insert user interest: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	byUser, err := loadUserInterests(ctx, s.db, []string{userID})
	if err != nil {
		return nil, err
	}
	interests := byUser[userID]
	if interests == nil {
		interests = []Interest{}
	}
	return interests, nil
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	var out []int64
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
