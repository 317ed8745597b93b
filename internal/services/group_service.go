package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neotogether/neotogether/internal/database"
	"github.com/neotogether/neotogether/internal/errors"
	"github.com/neotogether/neotogether/internal/telemetry"
)

type Group = database.Group
type GroupMember = database.GroupMember
type GroupJoinRequest = database.GroupJoinRequest

// GroupService manages ad-hoc groups anchored to availability slots and the
// join-request workflow around them.
type GroupService struct {
	db *database.DB
}

func NewGroupService(db *database.DB) *GroupService {
	return &GroupService{db: db}
}

// AtCapacity reports whether a group can take one more confirmed member.
// Every confirmed member's max group size is a hard cap: if adding one more
// person would exceed anyone's limit, the group is full.
func AtCapacity(confirmedCount int, memberMaxSizes []int) bool {
	for _, max := range memberMaxSizes {
		if confirmedCount >= max {
			return true
		}
	}
	return false
}

// CreateGroup opens a new group on one of the founder's availability slots.
func (s *GroupService) CreateGroup(ctx context.Context, founderID string, availabilityID int64) (*Group, error) {
	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"operation": "create_group",
		"user_id":   founderID,
	})

	var group *Group
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM availabilities WHERE id = $1 AND user_id = $2 AND is_active = TRUE)`,
			availabilityID, founderID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check availability: %w", err)
		}
		if !exists {
			return errors.NewNotFoundError("Availability")
		}

		group = &Group{AvailabilityID: availabilityID, Status: database.GroupStatusActive}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO groups (availability_id, status) VALUES ($1, 'active')
			RETURNING id, created_at
		`, availabilityID).Scan(&group.ID, &group.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, user_id, role, status)
			VALUES ($1, $2, 'founder', 'confirmed')
		`, group.ID, founderID)
		if err != nil {
			return fmt.Errorf("failed to add founder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.loadMembers(ctx, group); err != nil {
		return nil, err
	}
	logger.WithField("group_id", group.ID).Info("Group created")
	return group, nil
}

// MyGroups returns the active groups the user is a confirmed member of.
func (s *GroupService) MyGroups(ctx context.Context, userID string) ([]Group, error) {
	query := `
		SELECT g.id, g.availability_id, g.status, g.created_at
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1 AND gm.status = 'confirmed' AND g.status = 'active'
		ORDER BY g.created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []Group{}
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.AvailabilityID, &g.Status, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}

	for i := range groups {
		if err := s.loadMembers(ctx, &groups[i]); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (s *GroupService) loadMembers(ctx context.Context, group *Group) error {
	query := `
		SELECT gm.id, gm.group_id, gm.user_id, gm.role, gm.status, gm.joined_at,
		       u.first_name, u.birth_year, u.gender
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1 AND gm.status = 'confirmed'
		ORDER BY gm.joined_at
	`
	rows, err := s.db.QueryContext(ctx, query, group.ID)
	if err != nil {
		return fmt.Errorf("failed to load group members: %w", err)
	}
	defer rows.Close()

	group.Members = []GroupMember{}
	for rows.Next() {
		var m GroupMember
		member := &User{}
		err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.Status, &m.JoinedAt,
			&member.FirstName, &member.BirthYear, &member.Gender)
		if err != nil {
			return fmt.Errorf("failed to scan group member: %w", err)
		}
		member.ID = m.UserID
		m.User = member
		group.Members = append(group.Members, m)
	}
	return rows.Err()
}

// RequestJoin files a pending join request against an active group. Capacity
// is checked against every confirmed member's max group size.
func (s *GroupService) RequestJoin(ctx context.Context, groupID int64, userID string) (*GroupJoinRequest, error) {
	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"operation": "request_join",
		"group_id":  groupID,
		"user_id":   userID,
	})

	var request *GroupJoinRequest
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var status database.GroupStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM groups WHERE id = $1 FOR UPDATE`, groupID).Scan(&status)
		if err != nil {
			if err == sql.ErrNoRows {
				return errors.NewNotFoundError("Group")
			}
			return fmt.Errorf("failed to load group: %w", err)
		}
		if status != database.GroupStatusActive {
			return errors.NewNotFoundError("Group")
		}

		var isMember bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM group_members
				WHERE group_id = $1 AND user_id = $2 AND status = 'confirmed'
			)
		`, groupID, userID).Scan(&isMember)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if isMember {
			return errors.NewConflictError("You are already a member of this group.")
		}

		var hasPending bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM group_join_requests
				WHERE group_id = $1 AND user_id = $2 AND status = 'pending'
			)
		`, groupID, userID).Scan(&hasPending)
		if err != nil {
			return fmt.Errorf("failed to check pending request: %w", err)
		}
		if hasPending {
			return errors.NewConflictError("You already have a pending request for this group.")
		}

		confirmedCount, maxSizes, err := groupCapacity(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if AtCapacity(confirmedCount, maxSizes) {
			return errors.NewConflictError("This group is full.")
		}

		request = &GroupJoinRequest{GroupID: groupID, UserID: userID, Status: database.JoinRequestPending}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO group_join_requests (group_id, user_id, status)
			VALUES ($1, $2, 'pending')
			RETURNING id, created_at
		`, groupID, userID).Scan(&request.ID, &request.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return errors.NewConflictError("You already have a pending request for this group.")
			}
			return fmt.Errorf("failed to create join request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithField("request_id", request.ID).Info("Join request filed")
	return request, nil
}

// PendingJoinRequests lists the open requests to groups the user belongs to.
func (s *GroupService) PendingJoinRequests(ctx context.Context, userID string) ([]GroupJoinRequest, error) {
	query := `
		SELECT r.id, r.group_id, r.user_id, r.status, r.created_at, r.responded_at,
		       u.first_name, u.birth_year, u.gender
		FROM group_join_requests r
		JOIN group_members gm ON gm.group_id = r.group_id
		JOIN users u ON u.id = r.user_id
		WHERE gm.user_id = $1 AND gm.status = 'confirmed' AND r.status = 'pending'
		ORDER BY r.created_at
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	defer rows.Close()

	requests := []GroupJoinRequest{}
	for rows.Next() {
		var r GroupJoinRequest
		applicant := &User{}
		err := rows.Scan(&r.ID, &r.GroupID, &r.UserID, &r.Status, &r.CreatedAt, &r.RespondedAt,
			&applicant.FirstName, &applicant.BirthYear, &applicant.Gender)
		if err != nil {
			return nil, fmt.Errorf("failed to scan join request: %w", err)
		}
		applicant.ID = r.UserID
		r.User = applicant
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating join requests: %w", err)
	}
	return requests, nil
}

// Resolve accepts or declines a pending join request. Only a confirmed
// member of the group may respond; acceptance re-checks capacity and adds
// the applicant as a confirmed member.
func (s *GroupService) Resolve(ctx context.Context, requestID int64, responderID string, accept bool) (*GroupJoinRequest, error) {
	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"operation":  "resolve_join_request",
		"request_id": requestID,
		"user_id":    responderID,
	})

	var request *GroupJoinRequest
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		request = &GroupJoinRequest{ID: requestID}
		err := tx.QueryRowContext(ctx, `
			SELECT group_id, user_id, status, created_at, responded_at
			FROM group_join_requests WHERE id = $1 FOR UPDATE
		`, requestID).Scan(&request.GroupID, &request.UserID, &request.Status,
			&request.CreatedAt, &request.RespondedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				return errors.NewNotFoundError("Join request")
			}
			return fmt.Errorf("failed to load join request: %w", err)
		}

		var isMember bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM group_members
				WHERE group_id = $1 AND user_id = $2 AND status = 'confirmed'
			)
		`, request.GroupID, responderID).Scan(&isMember)
		if err != nil {
			return fmt.Errorf("failed to check responder membership: %w", err)
		}
		if !isMember {
			return errors.NewAuthorizationError("Only group members can respond to join requests.")
		}

		if request.Status != database.JoinRequestPending {
			return errors.NewConflictError("This request has already been responded to.")
		}

		newStatus := database.JoinRequestDeclined
		if accept {
			newStatus = database.JoinRequestAccepted

			confirmedCount, maxSizes, err := groupCapacity(ctx, tx, request.GroupID)
			if err != nil {
				return err
			}
			if AtCapacity(confirmedCount, maxSizes) {
				return errors.NewConflictError("This group is full.")
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO group_members (group_id, user_id, role, status)
				VALUES ($1, $2, 'member', 'confirmed')
				ON CONFLICT ON CONSTRAINT uq_group_member
				DO UPDATE SET status = 'confirmed'
			`, request.GroupID, request.UserID)
			if err != nil {
				return fmt.Errorf("failed to add member: %w", err)
			}
		}

		err = tx.QueryRowContext(ctx, `
			UPDATE group_join_requests
			SET status = $1, responded_at = NOW()
			WHERE id = $2
			RETURNING status, responded_at
		`, string(newStatus), requestID).Scan(&request.Status, &request.RespondedAt)
		if err != nil {
			return fmt.Errorf("failed to update join request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithField("status", request.Status).Info("Join request resolved")
	return request, nil
}

// groupCapacity returns the confirmed member count and each confirmed
// member's max group size, locking the membership rows.
func groupCapacity(ctx context.Context, tx *sql.Tx, groupID int64) (int, []int, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT u.max_group_size
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1 AND gm.status = 'confirmed'
		FOR UPDATE OF gm
	`, groupID)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load group capacity: %w", err)
	}
	defer rows.Close()

	var maxSizes []int
	for rows.Next() {
		var max int
		if err := rows.Scan(&max); err != nil {
			return 0, nil, fmt.Errorf("failed to scan member capacity: %w", err)
		}
		maxSizes = append(maxSizes, max)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("error iterating member capacities: %w", err)
	}
	return len(maxSizes), maxSizes, nil
}
