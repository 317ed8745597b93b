package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/neotogether/neotogether/internal/auth"
	"github.com/neotogether/neotogether/internal/database"
	"github.com/neotogether/neotogether/internal/errors"
	"github.com/neotogether/neotogether/internal/mailer"
	"github.com/neotogether/neotogether/internal/telemetry"
)

// AuthService handles signup, private-key login, and magic-link email login.
type AuthService struct {
	db          *database.DB
	mailer      *mailer.Mailer
	tokenOpts   auth.TokenOptions
	frontendURL string
}

func NewAuthService(db *database.DB, m *mailer.Mailer, tokenOpts auth.TokenOptions, frontendURL string) *AuthService {
	return &AuthService{db: db, mailer: m, tokenOpts: tokenOpts, frontendURL: frontendURL}
}

// SignupInput is the payload for creating an account.
type SignupInput struct {
	FirstName   string  `json:"first_name"`
	BirthYear   int     `json:"birth_year"`
	Gender      string  `json:"gender"`
	Email       *string `json:"email"`
	InterestIDs []int64 `json:"interest_ids"`
}

func (in SignupInput) validate() error {
	if in.FirstName == "" {
		return errors.NewValidationError("first_name", "first_name is required")
	}
	currentYear := time.Now().Year()
	if in.BirthYear < 1900 || in.BirthYear > currentYear-13 {
		return errors.NewValidationError("birth_year", "birth_year is out of range")
	}
	if in.Gender == "" {
		return errors.NewValidationError("gender", "gender is required")
	}
	return nil
}

// SignupResult carries the created user and the one-time plaintext key.
// The key is shown exactly once; only its hash is stored.
type SignupResult struct {
	User       *User
	PrivateKey string
}

// Signup creates an account for an approved first name and hands back the
// freshly generated private key.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	name := auth.NormalizeName(input.FirstName)
	if !auth.IsApprovedName(name) {
		return nil, errors.NewValidationError("first_name", "This first name is not on the approved list.")
	}

	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"operation":  "signup",
		"first_name": name,
	})

	privateKey, err := auth.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	var email *string
	if input.Email != nil && *input.Email != "" {
		normalized := strings.ToLower(strings.TrimSpace(*input.Email))
		if !strings.Contains(normalized, "@") {
			return nil, errors.NewValidationError("email", "invalid email address")
		}
		email = &normalized
	}

	interestIDs := distinct(input.InterestIDs)
	if len(interestIDs) > 0 {
		var count int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM interests WHERE id = ANY($1)`, pq.Array(interestIDs),
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("failed to validate interest ids: %w", err)
		}
		if count != len(interestIDs) {
			return nil, errors.NewValidationError("interest_ids", "one or more interest ids do not exist")
		}
	}

	id := uuid.New().String()
	var user *User
	err = s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO users (id, first_name, birth_year, gender, private_key_hash, email)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING ` + userColumns
		user, err = scanUser(tx.QueryRowContext(ctx, query,
			id, name, input.BirthYear, input.Gender, auth.HashPrivateKey(privateKey), email,
		))
		if err != nil {
			if isUniqueViolation(err) {
				return errors.NewConflictError("An account with this email already exists.")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		for _, interestID := range interestIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO user_interests (user_id, interest_id) VALUES ($1, $2)`, id, interestID)
			if err != nil {
				return fmt.Errorf("failed to attach interest: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	byUser, err := loadUserInterests(ctx, s.db, []string{id})
	if err != nil {
		return nil, err
	}
	user.Interests = byUser[id]
	if user.Interests == nil {
		user.Interests = []Interest{}
	}

	logger.WithField("user_id", user.ID).Info("User signed up")
	return &SignupResult{User: user, PrivateKey: privateKey}, nil
}

// SignupWithEmail creates an email-verified account. Instead of handing the
// private key back, a magic link is mailed so the address is proven before
// first login.
func (s *AuthService) SignupWithEmail(ctx context.Context, input SignupInput) error {
	if input.Email == nil || *input.Email == "" {
		return errors.NewValidationError("email", "email is required")
	}

	result, err := s.Signup(ctx, input)
	if err != nil {
		return err
	}

	token, err := auth.GenerateMagicToken()
	if err != nil {
		return fmt.Errorf("failed to generate magic token: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET magic_token = $1, magic_token_expires = $2 WHERE id = $3`,
		token, auth.MagicTokenExpiry(), result.User.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to store magic token: %w", err)
	}

	if !s.mailer.SendMagicLink(ctx, *result.User.Email, token, s.frontendURL) {
		telemetry.LogFromContext(ctx).
			WithField("user_id", result.User.ID).
			Warn("Signup verification email delivery failed")
	}
	return nil
}

// Login checks a (first name, private key) pair and mints an access token.
// Names are not unique, so every account under the name is tried.
func (s *AuthService) Login(ctx context.Context, firstName, privateKey string) (string, error) {
	name := auth.NormalizeName(firstName)
	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"operation":  "login",
		"first_name": name,
	})

	query := `SELECT id, private_key_hash FROM users WHERE first_name = $1`
	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return "", fmt.Errorf("failed to query users for login: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return "", fmt.Errorf("failed to scan login candidate: %w", err)
		}
		if auth.VerifyPrivateKey(privateKey, hash) {
			token, _, err := auth.GenerateAccessToken(s.tokenOpts, id)
			if err != nil {
				return "", fmt.Errorf("failed to issue access token: %w", err)
			}
			logger.WithField("user_id", id).Info("User logged in")
			return token, nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("error iterating login candidates: %w", err)
	}

	logger.Warn("Login failed")
	return "", errors.NewAuthenticationError("Invalid name or private key.")
}

// RequestMagicLink generates a single-use login token for the account with
// the given email and mails it out. To avoid leaking which emails exist, an
// unknown address is reported the same way as a successful send.
func (s *AuthService) RequestMagicLink(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	logger := telemetry.LogFromContext(ctx).WithField("operation", "request_magic_link")

	var userID string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.Info("Magic link requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up email: %w", err)
	}

	token, err := auth.GenerateMagicToken()
	if err != nil {
		return fmt.Errorf("failed to generate magic token: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET magic_token = $1, magic_token_expires = $2 WHERE id = $3`,
		token, auth.MagicTokenExpiry(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to store magic token: %w", err)
	}

	if !s.mailer.SendMagicLink(ctx, email, token, s.frontendURL) {
		logger.WithField("user_id", userID).Warn("Magic link email delivery failed")
	}
	return nil
}

// VerifyMagicLink consumes a magic token and mints an access token.
// Tokens are single use and expire after fifteen minutes.
func (s *AuthService) VerifyMagicLink(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.NewAuthenticationError("Invalid or expired magic link.")
	}

	var userID string
	var expiry *time.Time
	query := `SELECT id, magic_token_expires FROM users WHERE magic_token = $1`
	err := s.db.QueryRowContext(ctx, query, token).Scan(&userID, &expiry)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", errors.NewAuthenticationError("Invalid or expired magic link.")
		}
		return "", fmt.Errorf("failed to look up magic token: %w", err)
	}

	if expiry == nil || time.Now().After(*expiry) {
		return "", errors.NewAuthenticationError("Invalid or expired magic link.")
	}

	// Consume the token before issuing anything.
	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET magic_token = NULL, magic_token_expires = NULL WHERE id = $1`, userID)
	if err != nil {
		return "", fmt.Errorf("failed to consume magic token: %w", err)
	}

	accessToken, _, err := auth.GenerateAccessToken(s.tokenOpts, userID)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	telemetry.LogFromContext(ctx).WithField("user_id", userID).Info("Magic link login")
	return accessToken, nil
}
