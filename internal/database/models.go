package database

import (
	"time"

	"github.com/lib/pq"
)

// User represents a person using the app. First names come from a fixed
// approved list, so a (first_name, private_key) pair is the credential.
type User struct {
	ID               string     `json:"id" db:"id"`
	FirstName        string     `json:"first_name" db:"first_name"`
	BirthYear        int        `json:"birth_year" db:"birth_year"`
	Gender           string     `json:"gender" db:"gender"`
	PrivateKeyHash   string     `json:"-" db:"private_key_hash"`
	IsAvailable      bool       `json:"is_available" db:"is_available"`
	MinAgePreference *int       `json:"min_age_preference" db:"min_age_preference"`
	MaxAgePreference *int       `json:"max_age_preference" db:"max_age_preference"`
	GenderPrefs      []string   `json:"gender_preferences" db:"gender_preferences"`
	MinGroupSize     int        `json:"min_group_size" db:"min_group_size"`
	MaxGroupSize     int        `json:"max_group_size" db:"max_group_size"`
	Email            *string    `json:"email,omitempty" db:"email"`
	MagicToken       *string    `json:"-" db:"magic_token"`
	MagicTokenExpiry *time.Time `json:"-" db:"magic_token_expires"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`

	Interests []Interest `json:"interests,omitempty" db:"-"`
}

// Interest is a catalog topic users can tag themselves with.
type Interest struct {
	ID       int64   `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Category *string `json:"category" db:"category"`
}

// Availability is a recurring time/location window during which a user is
// open to meeting people. Times are "HH:MM" strings; repeat days use
// 0=Monday through 6=Sunday.
type Availability struct {
	ID           int64         `json:"id" db:"id"`
	UserID       string        `json:"user_id" db:"user_id"`
	LocationName string        `json:"location_name" db:"location_name"`
	Latitude     float64       `json:"latitude" db:"latitude"`
	Longitude    float64       `json:"longitude" db:"longitude"`
	RadiusMeters *int          `json:"radius_meters" db:"radius_meters"`
	TimeStart    string        `json:"time_start" db:"time_start"`
	TimeEnd      string        `json:"time_end" db:"time_end"`
	RepeatDays   pq.Int64Array `json:"repeat_days" db:"repeat_days"`
	IsActive     bool          `json:"is_active" db:"is_active"`
}

// ExpressedInterest is a one-directional "I'd like to meet you here" edge.
// Unique per (requester, target, availability) and immutable once created.
type ExpressedInterest struct {
	ID             int64     `json:"id" db:"id"`
	RequesterID    string    `json:"requester_id" db:"requester_id"`
	TargetID       string    `json:"target_id" db:"target_id"`
	AvailabilityID int64     `json:"availability_id" db:"availability_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// MatchStatus is the closed set of states a match can be in.
type MatchStatus string

const (
	MatchStatusPending      MatchStatus = "pending"
	MatchStatusTimeProposed MatchStatus = "time_proposed"
	MatchStatusConfirmed    MatchStatus = "confirmed"
)

// Valid reports whether s is a known match status.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusTimeProposed, MatchStatusConfirmed:
		return true
	}
	return false
}

// Match is a mutual interest between two users at one availability.
// User IDs are stored canonically with UserID1 < UserID2.
type Match struct {
	ID               int64       `json:"id" db:"id"`
	User1ID          string      `json:"user1_id" db:"user1_id"`
	User2ID          string      `json:"user2_id" db:"user2_id"`
	AvailabilityID   int64       `json:"availability_id" db:"availability_id"`
	Status           MatchStatus `json:"status" db:"status"`
	ProposedDatetime *time.Time  `json:"proposed_datetime" db:"proposed_datetime"`
	ProposedByID     *string     `json:"proposed_by_id" db:"proposed_by_id"`
	ConfirmedAt      *time.Time  `json:"confirmed_at" db:"confirmed_at"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
}

// GroupStatus is the closed set of states a group can be in.
type GroupStatus string

const (
	GroupStatusActive    GroupStatus = "active"
	GroupStatusDisbanded GroupStatus = "disbanded"
)

// MemberRole distinguishes the founder from regular members.
type MemberRole string

const (
	RoleFounder MemberRole = "founder"
	RoleMember  MemberRole = "member"
)

// MemberStatus is the state of a group membership.
type MemberStatus string

const (
	MemberStatusConfirmed MemberStatus = "confirmed"
	MemberStatusPending   MemberStatus = "pending"
	MemberStatusDeclined  MemberStatus = "declined"
)

// Group is an ad-hoc group anchored to an availability slot.
type Group struct {
	ID             int64       `json:"id" db:"id"`
	AvailabilityID int64       `json:"availability_id" db:"availability_id"`
	Status         GroupStatus `json:"status" db:"status"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`

	Members []GroupMember `json:"members,omitempty" db:"-"`
}

// GroupMember ties a user to a group with a role and a membership status.
type GroupMember struct {
	ID       int64        `json:"id" db:"id"`
	GroupID  int64        `json:"group_id" db:"group_id"`
	UserID   string       `json:"user_id" db:"user_id"`
	Role     MemberRole   `json:"role" db:"role"`
	Status   MemberStatus `json:"status" db:"status"`
	JoinedAt time.Time    `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}

// JoinRequestStatus is the closed set of states a join request can be in.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestDeclined JoinRequestStatus = "declined"
)

// GroupJoinRequest is a pending application from a user to a group.
// Terminal once responded.
type GroupJoinRequest struct {
	ID          int64             `json:"id" db:"id"`
	GroupID     int64             `json:"group_id" db:"group_id"`
	UserID      string            `json:"user_id" db:"user_id"`
	Status      JoinRequestStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	RespondedAt *time.Time        `json:"responded_at" db:"responded_at"`

	User *User `json:"user,omitempty" db:"-"`
}
