package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neotogether/neotogether/internal/database"
	"github.com/neotogether/neotogether/internal/errors"
	"github.com/neotogether/neotogether/internal/telemetry"
)

type Match = database.Match

// MatchService records expressed interests and drives the match state
// machine: pending -> time_proposed -> confirmed.
type MatchService struct {
	db *database.DB
}

func NewMatchService(db *database.DB) *MatchService {
	return &MatchService{db: db}
}

// ExpressResult reports whether expressing interest completed a mutual match.
type ExpressResult struct {
	MutualMatch bool
	Match       *Match
}

// ExpressInterest records a one-directional interest edge. If the target has
// already expressed interest back on the same slot, the pair becomes a match.
// The match insert is idempotent, so two simultaneous mutual expressions
// produce exactly one match row.
func (s *MatchService) ExpressInterest(ctx context.Context, requesterID, targetID string, availabilityID int64) (*ExpressResult, error) {
	if requesterID == targetID {
		return nil, errors.NewValidationError("target_id", "You cannot express interest in yourself.")
	}

	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"operation":    "express_interest",
		"requester_id": requesterID,
		"target_id":    targetID,
	})

	result := &ExpressResult{}
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, targetID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check target user: %w", err)
		}
		if !exists {
			return errors.NewNotFoundError("User")
		}

		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM availabilities WHERE id = $1)`,
			availabilityID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check availability: %w", err)
		}
		if !exists {
			return errors.NewNotFoundError("Availability")
		}

		insert, err := tx.ExecContext(ctx, `
			INSERT INTO expressed_interests (requester_id, target_id, availability_id)
			VALUES ($1, $2, $3)
			ON CONFLICT ON CONSTRAINT unique_expressed_interest DO NOTHING
		`, requesterID, targetID, availabilityID)
		if err != nil {
			return fmt.Errorf("failed to record interest: %w", err)
		}
		inserted, err := insert.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check interest insert: %w", err)
		}
		if inserted == 0 {
			return errors.NewConflictError("You have already expressed interest here.")
		}

		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM expressed_interests
				WHERE requester_id = $1 AND target_id = $2 AND availability_id = $3
			)
		`, targetID, requesterID, availabilityID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check reciprocal interest: %w", err)
		}
		if !exists {
			return nil
		}

		user1, user2 := CanonicalPair(requesterID, targetID)
		matchInsert, err := tx.ExecContext(ctx, `
			INSERT INTO matches (user1_id, user2_id, availability_id, status)
			VALUES ($1, $2, $3, 'pending')
			ON CONFLICT ON CONSTRAINT unique_match DO NOTHING
		`, user1, user2, availabilityID)
		if err != nil {
			return fmt.Errorf("failed to create match: %w", err)
		}
		created, err := matchInsert.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check match insert: %w", err)
		}
		result.MutualMatch = created == 1

		if result.MutualMatch {
			match, err := scanMatch(tx.QueryRowContext(ctx, `
				SELECT `+matchColumns+` FROM matches
				WHERE user1_id = $1 AND user2_id = $2 AND availability_id = $3
			`, user1, user2, availabilityID))
			if err != nil {
				return fmt.Errorf("failed to load created match: %w", err)
			}
			result.Match = match
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.MutualMatch {
		logger.WithField("match_id", result.Match.ID).Info("Mutual match created")
	} else {
		logger.Info("Interest expressed")
	}
	return result, nil
}

const matchColumns = `id, user1_id, user2_id, availability_id, status,
	proposed_datetime, proposed_by_id, confirmed_at, created_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*Match, error) {
	match := &Match{}
	err := row.Scan(
		&match.ID, &match.User1ID, &match.User2ID, &match.AvailabilityID, &match.Status,
		&match.ProposedDatetime, &match.ProposedByID, &match.ConfirmedAt, &match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}

// MatchView is a match seen from one side, with the other party resolved.
type MatchView struct {
	Match
	OtherUser    *User         `json:"other_user"`
	Availability *Availability `json:"availability"`
}

// ListMatches returns all matches the user is part of, newest first, with
// the other participant and the anchoring slot attached.
func (s *MatchService) ListMatches(ctx context.Context, userID string) ([]MatchView, error) {
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	views := []MatchView{}
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		views = append(views, MatchView{Match: *match})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	for i := range views {
		v := &views[i]
		otherID := v.User1ID
		if otherID == userID {
			otherID = v.User2ID
		}

		other, err := scanUser(s.db.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, otherID))
		if err != nil {
			return nil, fmt.Errorf("failed to load match participant: %w", err)
		}
		interests, err := loadUserInterests(ctx, s.db, []string{otherID})
		if err != nil {
			return nil, err
		}
		other.Interests = interests[otherID]
		if other.Interests == nil {
			other.Interests = []Interest{}
		}
		v.OtherUser = other

		slot, err := scanAvailability(s.db.QueryRowContext(ctx,
			`SELECT `+availabilityColumns+` FROM availabilities WHERE id = $1`, v.AvailabilityID))
		if err != nil {
			return nil, fmt.Errorf("failed to load match availability: %w", err)
		}
		v.Availability = slot
	}
	return views, nil
}

// getForUpdate loads a match the user belongs to, locking the row.
// Non-participants get the same "not found" as a missing match.
func getMatchForUpdate(ctx context.Context, tx *sql.Tx, matchID int64, userID string) (*Match, error) {
	match, err := scanMatch(tx.QueryRowContext(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE id = $1 AND (user1_id = $2 OR user2_id = $2)
		FOR UPDATE
	`, matchID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("Match")
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	return match, nil
}

// ProposeTime sets a concrete meeting time on a pending match. Re-proposing
// on an already-proposed match replaces the earlier proposal.
func (s *MatchService) ProposeTime(ctx context.Context, matchID int64, userID string, when time.Time) (*Match, error) {
	var updated *Match
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		match, err := getMatchForUpdate(ctx, tx, matchID, userID)
		if err != nil {
			return err
		}
		if match.Status != database.MatchStatusPending && match.Status != database.MatchStatusTimeProposed {
			return errors.NewConflictError("A time can only be proposed before the match is confirmed.")
		}

		updated, err = scanMatch(tx.QueryRowContext(ctx, `
			UPDATE matches
			SET status = 'time_proposed', proposed_datetime = $1, proposed_by_id = $2
			WHERE id = $3
			RETURNING `+matchColumns, when, userID, matchID))
		if err != nil {
			return fmt.Errorf("failed to propose time: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"match_id": matchID,
		"user_id":  userID,
	}).Info("Meeting time proposed")
	return updated, nil
}

// Confirm accepts a proposed time. Only the party who did not propose the
// time may confirm it.
func (s *MatchService) Confirm(ctx context.Context, matchID int64, userID string) (*Match, error) {
	var updated *Match
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		match, err := getMatchForUpdate(ctx, tx, matchID, userID)
		if err != nil {
			return err
		}
		if match.Status != database.MatchStatusTimeProposed {
			return errors.NewConflictError("There is no proposed time to confirm.")
		}
		if match.ProposedByID != nil && *match.ProposedByID == userID {
			return errors.NewConflictError("The other person has to confirm the time you proposed.")
		}

		updated, err = scanMatch(tx.QueryRowContext(ctx, `
			UPDATE matches
			SET status = 'confirmed', confirmed_at = NOW()
			WHERE id = $1
			RETURNING `+matchColumns, matchID))
		if err != nil {
			return fmt.Errorf("failed to confirm match: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"match_id": matchID,
		"user_id":  userID,
	}).Info("Match confirmed")
	return updated, nil
}
