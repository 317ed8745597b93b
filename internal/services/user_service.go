package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/neotogether/neotogether/internal/database"
	"github.com/neotogether/neotogether/internal/errors"
	"github.com/neotogether/neotogether/internal/telemetry"
)

type User = database.User
type Interest = database.Interest

const userColumns = `id, first_name, birth_year, gender, private_key_hash, is_available,
	min_age_preference, max_age_preference, gender_preferences,
	min_group_size, max_group_size, email, magic_token, magic_token_expires, created_at`

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID, &user.FirstName, &user.BirthYear, &user.Gender,
		&user.PrivateKeyHash, &user.IsAvailable,
		&user.MinAgePreference, &user.MaxAgePreference, pq.Array(&user.GenderPrefs),
		&user.MinGroupSize, &user.MaxGroupSize,
		&user.Email, &user.MagicToken, &user.MagicTokenExpiry, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("User")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetWithInterests returns the user together with their interest tags.
func (s *UserService) GetWithInterests(ctx context.Context, id string) (*User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	interests, err := loadUserInterests(ctx, s.db, []string{id})
	if err != nil {
		return nil, err
	}
	user.Interests = interests[id]
	if user.Interests == nil {
		user.Interests = []Interest{}
	}
	return user, nil
}

// ToggleAvailability flips the user's available flag and returns the new value.
func (s *UserService) ToggleAvailability(ctx context.Context, id string) (bool, error) {
	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"user_id":   id,
		"operation": "toggle_availability",
	})

	var isAvailable bool
	query := `UPDATE users SET is_available = NOT is_available WHERE id = $1 RETURNING is_available`
	err := s.db.QueryRowContext(ctx, query, id).Scan(&isAvailable)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, errors.NewNotFoundError("User")
		}
		return false, fmt.Errorf("failed to toggle availability: %w", err)
	}

	logger.WithField("is_available", isAvailable).Info("Availability toggled")
	return isAvailable, nil
}

// PreferencesUpdate carries the fields a PATCH may set; nil means unchanged.
type PreferencesUpdate struct {
	MinAgePreference *int      `json:"min_age_preference"`
	MaxAgePreference *int      `json:"max_age_preference"`
	GenderPrefs      *[]string `json:"gender_preferences"`
	MinGroupSize     *int      `json:"min_group_size"`
	MaxGroupSize     *int      `json:"max_group_size"`
}

func (u PreferencesUpdate) validate() error {
	if u.MinAgePreference != nil && *u.MinAgePreference < 0 {
		return errors.NewValidationError("min_age_preference", "min_age_preference must not be negative")
	}
	if u.MaxAgePreference != nil && *u.MaxAgePreference < 0 {
		return errors.NewValidationError("max_age_preference", "max_age_preference must not be negative")
	}
	if u.MinGroupSize != nil && *u.MinGroupSize < 2 {
		return errors.NewValidationError("min_group_size", "min_group_size must be at least 2")
	}
	if u.MaxGroupSize != nil && *u.MaxGroupSize < 2 {
		return errors.NewValidationError("max_group_size", "max_group_size must be at least 2")
	}
	return nil
}

// UpdatePreferences applies a partial update to matching preferences.
func (s *UserService) UpdatePreferences(ctx context.Context, id string, update PreferencesUpdate) (*User, error) {
	if err := update.validate(); err != nil {
		return nil, err
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.MinAgePreference != nil {
		user.MinAgePreference = update.MinAgePreference
	}
	if update.MaxAgePreference != nil {
		user.MaxAgePreference = update.MaxAgePreference
	}
	if update.GenderPrefs != nil {
		user.GenderPrefs = *update.GenderPrefs
	}
	if update.MinGroupSize != nil {
		user.MinGroupSize = *update.MinGroupSize
	}
	if update.MaxGroupSize != nil {
		user.MaxGroupSize = *update.MaxGroupSize
	}
	if user.MinGroupSize > user.MaxGroupSize {
		return nil, errors.NewValidationError("max_group_size", "max_group_size must not be below min_group_size")
	}

	query := `
		UPDATE users
		SET min_age_preference = $1, max_age_preference = $2, gender_preferences = $3,
		    min_group_size = $4, max_group_size = $5
		WHERE id = $6
	`
	_, err = s.db.ExecContext(ctx, query,
		user.MinAgePreference, user.MaxAgePreference, pq.Array(user.GenderPrefs),
		user.MinGroupSize, user.MaxGroupSize, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}

	return user, nil
}

// UpdateEmail sets the user's email address; emails are unique per account.
func (s *UserService) UpdateEmail(ctx context.Context, id, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return errors.NewValidationError("email", "invalid email address")
	}

	_, err := s.db.ExecContext(ctx, `UPDATE users SET email = $1 WHERE id = $2`, email, id)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewConflictError("An account with this email already exists.")
		}
		return fmt.Errorf("failed to update email: %w", err)
	}
	return nil
}

// loadUserInterests fetches interest tags for a set of users in one query.
func loadUserInterests(ctx context.Context, db *database.DB, userIDs []string) (map[string][]Interest, error) {
	result := make(map[string][]Interest, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT ui.user_id, i.id, i.name, i.category
		FROM user_interests ui
		JOIN interests i ON i.id = ui.interest_id
		WHERE ui.user_id = ANY($1)
		ORDER BY i.category, i.name
	`
	rows, err := db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load user interests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var interest Interest
		if err := rows.Scan(&userID, &interest.ID, &interest.Name, &interest.Category); err != nil {
			return nil, fmt.Errorf("failed to scan user interest: %w", err)
		}
		result[userID] = append(result[userID], interest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user interests: %w", err)
	}
	return result, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint error.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
