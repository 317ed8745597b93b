package database

import (
	"context"
	"fmt"
)

// Schema DDL, applied idempotently by the seed tool. The locations column on
// availabilities keeps plain latitude/longitude pairs; discovery works on
// coordinate arithmetic, so no geospatial index is required.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		private_key_hash VARCHAR(255) NOT NULL,
		first_name VARCHAR(50) NOT NULL,
		birth_year INTEGER NOT NULL,
		gender VARCHAR(20) NOT NULL,
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		min_age_preference INTEGER,
		max_age_preference INTEGER,
		gender_preferences TEXT[] NOT NULL DEFAULT '{}',
		min_group_size INTEGER NOT NULL DEFAULT 2,
		max_group_size INTEGER NOT NULL DEFAULT 10,
		email VARCHAR(255) UNIQUE,
		magic_token VARCHAR(255),
		magic_token_expires TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS interests (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		category VARCHAR(50)
	)`,
	`CREATE TABLE IF NOT EXISTS user_interests (
		user_id UUID NOT NULL REFERENCES users(id),
		interest_id INTEGER NOT NULL REFERENCES interests(id),
		PRIMARY KEY (user_id, interest_id)
	)`,
	`CREATE TABLE IF NOT EXISTS availabilities (
		id SERIAL PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		location_name VARCHAR(200) NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		radius_meters INTEGER,
		time_start VARCHAR(5) NOT NULL,
		time_end VARCHAR(5) NOT NULL,
		repeat_days INTEGER[] NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS expressed_interests (
		id SERIAL PRIMARY KEY,
		requester_id UUID NOT NULL REFERENCES users(id),
		target_id UUID NOT NULL REFERENCES users(id),
		availability_id INTEGER NOT NULL REFERENCES availabilities(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT unique_expressed_interest UNIQUE (requester_id, target_id, availability_id)
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id SERIAL PRIMARY KEY,
		user1_id UUID NOT NULL REFERENCES users(id),
		user2_id UUID NOT NULL REFERENCES users(id),
		availability_id INTEGER NOT NULL REFERENCES availabilities(id),
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		proposed_datetime TIMESTAMPTZ,
		proposed_by_id UUID REFERENCES users(id),
		confirmed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT unique_match UNIQUE (user1_id, user2_id, availability_id)
	)`,
	`CREATE TABLE IF NOT EXISTS groups (
		id SERIAL PRIMARY KEY,
		availability_id INTEGER NOT NULL REFERENCES availabilities(id),
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS group_members (
		id SERIAL PRIMARY KEY,
		group_id INTEGER NOT NULL REFERENCES groups(id),
		user_id UUID NOT NULL REFERENCES users(id),
		role VARCHAR(20) NOT NULL DEFAULT 'member',
		status VARCHAR(20) NOT NULL DEFAULT 'confirmed',
		joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT uq_group_member UNIQUE (group_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS group_join_requests (
		id SERIAL PRIMARY KEY,
		group_id INTEGER NOT NULL REFERENCES groups(id),
		user_id UUID NOT NULL REFERENCES users(id),
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		responded_at TIMESTAMPTZ,
		CONSTRAINT uq_group_join_request UNIQUE (group_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_availabilities_user ON availabilities(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expressed_interests_target ON expressed_interests(target_id, requester_id)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_user1 ON matches(user1_id)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_user2 ON matches(user2_id)`,
	`CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id)`,
}

// EnsureSchema creates all tables and indexes if they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
