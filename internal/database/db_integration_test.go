package database

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgresContainer starts a disposable Postgres for integration tests.
func startPostgresContainer(ctx context.Context, t *testing.T) Config {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "neo_together_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return Config{
		Host:     host,
		Port:     mappedPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "neo_together_test",
		SSLMode:  "disable",
	}
}

func insertTestUser(t *testing.T, db *DB, firstName string) string {
	t.Helper()
	id := uuid.New().String()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO users (id, first_name, birth_year, gender, private_key_hash)
		VALUES ($1, $2, 1990, 'other', 'hash')
	`, id, firstName)
	require.NoError(t, err)
	return id
}

func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := NewConnection(startPostgresContainer(ctx, t))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.EnsureSchema(ctx))

	t.Run("EnsureSchema is idempotent", func(t *testing.T) {
		assert.NoError(t, db.EnsureSchema(ctx))
	})

	t.Run("Health", func(t *testing.T) {
		assert.NoError(t, db.Health(ctx))
	})

	t.Run("match insert is idempotent under the unique constraint", func(t *testing.T) {
		alice := insertTestUser(t, db, "Alice")
		bob := insertTestUser(t, db, "Bob")

		var slotID int64
		require.NoError(t, db.QueryRowContext(ctx, `
			INSERT INTO availabilities (user_id, location_name, latitude, longitude, time_start, time_end, repeat_days)
			VALUES ($1, 'Park', 52.5, 13.4, '09:00', '12:00', '{0,1}')
			RETURNING id
		`, bob).Scan(&slotID))

		insertMatch := func() int64 {
			result, err := db.ExecContext(ctx, `
				INSERT INTO matches (user1_id, user2_id, availability_id, status)
				VALUES ($1, $2, $3, 'pending')
				ON CONFLICT ON CONSTRAINT unique_match DO NOTHING
			`, minStr(alice, bob), maxStr(alice, bob), slotID)
			require.NoError(t, err)
			n, err := result.RowsAffected()
			require.NoError(t, err)
			return n
		}

		assert.Equal(t, int64(1), insertMatch())
		// The losing side of a mutual-interest race inserts zero rows.
		assert.Equal(t, int64(0), insertMatch())

		var count int
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM matches WHERE availability_id = $1`, slotID).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("WithTransaction commits on success", func(t *testing.T) {
		carol := insertTestUser(t, db, "Carol")

		err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`UPDATE users SET is_available = FALSE WHERE id = $1`, carol)
			return err
		})
		require.NoError(t, err)

		var isAvailable bool
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT is_available FROM users WHERE id = $1`, carol).Scan(&isAvailable))
		assert.False(t, isAvailable)
	})

	t.Run("WithTransaction rolls back on error", func(t *testing.T) {
		dave := insertTestUser(t, db, "Dave")

		wantErr := fmt.Errorf("business rule failed")
		err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET is_available = FALSE WHERE id = $1`, dave); err != nil {
				return err
			}
			return wantErr
		})
		assert.ErrorIs(t, err, wantErr)

		var isAvailable bool
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT is_available FROM users WHERE id = $1`, dave).Scan(&isAvailable))
		assert.True(t, isAvailable)
	})
}

func minStr(a, b string) string {
	if a < b {
		return a
	}
	return b
}

func maxStr(a, b string) string {
	if a < b {
		return b
	}
	return a
}
