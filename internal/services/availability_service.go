package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/neotogether/neotogether/internal/database"
	"github.com/neotogether/neotogether/internal/errors"
	"github.com/neotogether/neotogether/internal/telemetry"
)

type Availability = database.Availability

// AvailabilityService manages a user's recurring availability slots.
// All operations are owner-scoped: a user can only see and edit their own.
type AvailabilityService struct {
	db *database.DB
}

func NewAvailabilityService(db *database.DB) *AvailabilityService {
	return &AvailabilityService{db: db}
}

// AvailabilityInput is the payload for creating or replacing a slot.
type AvailabilityInput struct {
	LocationName string  `json:"location_name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters *int    `json:"radius_meters"`
	TimeStart    string  `json:"time_start"`
	TimeEnd      string  `json:"time_end"`
	RepeatDays   []int64 `json:"repeat_days"`
	IsActive     *bool   `json:"is_active"`
}

func (in AvailabilityInput) validate() error {
	if in.LocationName == "" {
		return errors.NewValidationError("location_name", "location_name is required")
	}
	if in.Latitude < -90 || in.Latitude > 90 {
		return errors.NewValidationError("latitude", "latitude must be between -90 and 90")
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		return errors.NewValidationError("longitude", "longitude must be between -180 and 180")
	}
	if err := validTimeWindow(in.TimeStart, in.TimeEnd); err != nil {
		return errors.NewValidationError("time_start", err.Error())
	}
	if len(in.RepeatDays) == 0 {
		return errors.NewValidationError("repeat_days", "at least one repeat day is required")
	}
	seen := make(map[int64]bool, len(in.RepeatDays))
	for _, d := range in.RepeatDays {
		if d < 0 || d > 6 {
			return errors.NewValidationError("repeat_days", "repeat days must be between 0 (Monday) and 6 (Sunday)")
		}
		if seen[d] {
			return errors.NewValidationError("repeat_days", "repeat days must not repeat")
		}
		seen[d] = true
	}
	if in.RadiusMeters != nil && *in.RadiusMeters <= 0 {
		return errors.NewValidationError("radius_meters", "radius_meters must be positive")
	}
	return nil
}

const availabilityColumns = `id, user_id, location_name, latitude, longitude,
	radius_meters, time_start, time_end, repeat_days, is_active`

func scanAvailability(row interface{ Scan(...interface{}) error }) (*Availability, error) {
	slot := &Availability{}
	err := row.Scan(
		&slot.ID, &slot.UserID, &slot.LocationName, &slot.Latitude, &slot.Longitude,
		&slot.RadiusMeters, &slot.TimeStart, &slot.TimeEnd, &slot.RepeatDays, &slot.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// Create adds a new slot for the user.
func (s *AvailabilityService) Create(ctx context.Context, userID string, input AvailabilityInput) (*Availability, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"user_id":   userID,
		"operation": "create_availability",
	})

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	query := `
		INSERT INTO availabilities
			(user_id, location_name, latitude, longitude, radius_meters, time_start, time_end, repeat_days, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + availabilityColumns
	slot, err := scanAvailability(s.db.QueryRowContext(ctx, query,
		userID, input.LocationName, input.Latitude, input.Longitude, input.RadiusMeters,
		input.TimeStart, input.TimeEnd, pq.Int64Array(input.RepeatDays), isActive,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create availability: %w", err)
	}

	logger.WithField("availability_id", slot.ID).Info("Availability created")
	return slot, nil
}

// ListMine returns all of the user's slots, newest first.
func (s *AvailabilityService) ListMine(ctx context.Context, userID string) ([]Availability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availabilities WHERE user_id = $1 ORDER BY id DESC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availabilities: %w", err)
	}
	defer rows.Close()

	slots := []Availability{}
	for rows.Next() {
		slot, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		slots = append(slots, *slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availabilities: %w", err)
	}
	return slots, nil
}

// Get returns one slot, enforcing ownership.
func (s *AvailabilityService) Get(ctx context.Context, userID string, id int64) (*Availability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availabilities WHERE id = $1 AND user_id = $2`
	slot, err := scanAvailability(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("Availability")
		}
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	return slot, nil
}

// Update replaces a slot's fields, enforcing ownership.
func (s *AvailabilityService) Update(ctx context.Context, userID string, id int64, input AvailabilityInput) (*Availability, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	query := `
		UPDATE availabilities
		SET location_name = $1, latitude = $2, longitude = $3, radius_meters = $4,
		    time_start = $5, time_end = $6, repeat_days = $7, is_active = $8
		WHERE id = $9 AND user_id = $10
		RETURNING ` + availabilityColumns
	slot, err := scanAvailability(s.db.QueryRowContext(ctx, query,
		input.LocationName, input.Latitude, input.Longitude, input.RadiusMeters,
		input.TimeStart, input.TimeEnd, pq.Int64Array(input.RepeatDays), isActive,
		id, userID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("Availability")
		}
		return nil, fmt.Errorf("failed to update availability: %w", err)
	}
	return slot, nil
}

// Delete removes a slot, enforcing ownership.
func (s *AvailabilityService) Delete(ctx context.Context, userID string, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM availabilities WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return errors.NewNotFoundError("Availability")
	}
	return nil
}
