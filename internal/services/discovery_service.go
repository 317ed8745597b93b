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

// DiscoveryService answers "where can I meet people" and "who is there".
// Only available users with active slots enter the results, and the viewer
// never sees themselves.
type DiscoveryService struct {
	db *database.DB
}

func NewDiscoveryService(db *database.DB) *DiscoveryService {
	return &DiscoveryService{db: db}
}

// ListLocations aggregates every active slot of available users (excluding
// the viewer) into locations.
func (s *DiscoveryService) ListLocations(ctx context.Context, viewerID string) ([]Location, error) {
	query := `
		SELECT a.id, a.user_id, a.location_name, a.latitude, a.longitude,
		       a.radius_meters, a.time_start, a.time_end, a.repeat_days, a.is_active
		FROM availabilities a
		JOIN users u ON u.id = a.user_id
		WHERE a.is_active = TRUE AND u.is_available = TRUE AND a.user_id <> $1
		ORDER BY a.id
	`
	rows, err := s.db.QueryContext(ctx, query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query discovery slots: %w", err)
	}
	defer rows.Close()

	var slots []Availability
	for rows.Next() {
		slot, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan discovery slot: %w", err)
		}
		slots = append(slots, *slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discovery slots: %w", err)
	}

	return GroupByLocation(slots), nil
}

// PeopleAtLocation lists the candidates whose active slots fall inside the
// proximity box around (lat, lng), ranked by schedule overlap with the
// viewer and then by shared interests.
func (s *DiscoveryService) PeopleAtLocation(ctx context.Context, viewerID string, lat, lng float64) ([]Person, error) {
	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"operation": "people_at_location",
		"viewer_id": viewerID,
	})

	query := `
		SELECT a.id, a.user_id, a.location_name, a.latitude, a.longitude,
		       a.radius_meters, a.time_start, a.time_end, a.repeat_days, a.is_active,
		       u.first_name, u.birth_year, u.gender
		FROM availabilities a
		JOIN users u ON u.id = a.user_id
		WHERE a.is_active = TRUE AND u.is_available = TRUE AND a.user_id <> $1
		  AND ABS(a.latitude - $2) < $4 AND ABS(a.longitude - $3) < $4
		ORDER BY a.id
	`
	rows, err := s.db.QueryContext(ctx, query, viewerID, lat, lng, proximityDegrees)
	if err != nil {
		return nil, fmt.Errorf("failed to query people at location: %w", err)
	}
	defer rows.Close()

	people := []Person{}
	userIDs := []string{viewerID}
	seenUsers := map[string]bool{}
	for rows.Next() {
		var slot Availability
		var firstName, gender string
		var birthYear int
		err := rows.Scan(
			&slot.ID, &slot.UserID, &slot.LocationName, &slot.Latitude, &slot.Longitude,
			&slot.RadiusMeters, &slot.TimeStart, &slot.TimeEnd, &slot.RepeatDays, &slot.IsActive,
			&firstName, &birthYear, &gender,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, Person{
			UserID:         slot.UserID,
			FirstName:      firstName,
			BirthYear:      birthYear,
			Gender:         gender,
			AvailabilityID: slot.ID,
			LocationName:   slot.LocationName,
			TimeStart:      slot.TimeStart,
			TimeEnd:        slot.TimeEnd,
			RepeatDays:     slot.RepeatDays,
		})
		if !seenUsers[slot.UserID] {
			seenUsers[slot.UserID] = true
			userIDs = append(userIDs, slot.UserID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating people: %w", err)
	}

	if len(people) == 0 {
		return people, nil
	}

	interestsByUser, err := loadUserInterests(ctx, s.db, userIDs)
	if err != nil {
		return nil, err
	}
	viewerSlots, err := s.activeSlots(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	sentTo, err := s.sentInterestKeys(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	viewerInterests := interestsByUser[viewerID]
	for i := range people {
		p := &people[i]
		theirInterests := interestsByUser[p.UserID]
		if theirInterests == nil {
			theirInterests = []Interest{}
		}
		p.Interests = theirInterests
		p.SharedInterests = SharedInterestNames(viewerInterests, theirInterests)
		if p.SharedInterests == nil {
			p.SharedInterests = []string{}
		}
		// Overlap is judged against the one slot that placed them here,
		// not against the person's slots at other locations.
		p.Overlaps = ComputeOverlaps(viewerSlots, []Availability{p.slot()})
		if p.Overlaps == nil {
			p.Overlaps = []OverlapWindow{}
		}
		p.InterestSent = sentTo[interestKey{targetID: p.UserID, availabilityID: p.AvailabilityID}]
	}

	SortPeople(people)
	logger.WithField("people", len(people)).Debug("Discovery results ranked")
	return people, nil
}

// PeopleAtSlot resolves a target availability to its coordinates and lists
// the people around it.
func (s *DiscoveryService) PeopleAtSlot(ctx context.Context, viewerID string, availabilityID int64) ([]Person, error) {
	var lat, lng float64
	err := s.db.QueryRowContext(ctx,
		`SELECT latitude, longitude FROM availabilities WHERE id = $1`,
		availabilityID).Scan(&lat, &lng)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("Availability")
		}
		return nil, fmt.Errorf("failed to resolve target availability: %w", err)
	}
	return s.PeopleAtLocation(ctx, viewerID, lat, lng)
}

// SentInterests lists the directional interests the viewer has expressed.
func (s *DiscoveryService) SentInterests(ctx context.Context, viewerID string) ([]database.ExpressedInterest, error) {
	query := `
		SELECT id, requester_id, target_id, availability_id, created_at
		FROM expressed_interests
		WHERE requester_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent interests: %w", err)
	}
	defer rows.Close()

	sent := []database.ExpressedInterest{}
	for rows.Next() {
		var e database.ExpressedInterest
		if err := rows.Scan(&e.ID, &e.RequesterID, &e.TargetID, &e.AvailabilityID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sent interest: %w", err)
		}
		sent = append(sent, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sent interests: %w", err)
	}
	return sent, nil
}

type interestKey struct {
	targetID       string
	availabilityID int64
}

func (s *DiscoveryService) sentInterestKeys(ctx context.Context, viewerID string) (map[interestKey]bool, error) {
	sent, err := s.SentInterests(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	keys := make(map[interestKey]bool, len(sent))
	for _, e := range sent {
		keys[interestKey{targetID: e.TargetID, availabilityID: e.AvailabilityID}] = true
	}
	return keys, nil
}

func (s *DiscoveryService) activeSlots(ctx context.Context, userID string) ([]Availability, error) {
	byUser, err := s.activeSlotsFor(ctx, []string{userID})
	if err != nil {
		return nil, err
	}
	return byUser[userID], nil
}

func (s *DiscoveryService) activeSlotsFor(ctx context.Context, userIDs []string) (map[string][]Availability, error) {
	result := make(map[string][]Availability, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT ` + availabilityColumns + `
		FROM availabilities
		WHERE is_active = TRUE AND user_id = ANY($1)
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load active slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		slot, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan active slot: %w", err)
		}
		result[slot.UserID] = append(result[slot.UserID], *slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active slots: %w", err)
	}
	return result, nil
}
