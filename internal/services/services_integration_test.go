package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/neotogether/neotogether/internal/database"
	"github.com/neotogether/neotogether/internal/errors"
)

func startServicePostgres(ctx context.Context, t *testing.T) database.Config {
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

	return database.Config{
		Host:     host,
		Port:     mappedPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "neo_together_test",
		SSLMode:  "disable",
	}
}

func seedUser(t *testing.T, db *database.DB, firstName string) string {
	t.Helper()
	id := uuid.New().String()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO users (id, first_name, birth_year, gender, private_key_hash)
		VALUES ($1, $2, 1990, 'other', 'hash')
	`, id, firstName)
	require.NoError(t, err)
	return id
}

func seedSlot(t *testing.T, db *database.DB, userID, name string, lat, lng float64, start, end, days string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, db.QueryRowContext(context.Background(), `
		INSERT INTO availabilities (user_id, location_name, latitude, longitude, time_start, time_end, repeat_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, userID, name, lat, lng, start, end, days).Scan(&id))
	return id
}

func TestServicesIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := database.NewConnection(startServicePostgres(ctx, t))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.EnsureSchema(ctx))

	matches := NewMatchService(db)
	discovery := NewDiscoveryService(db)

	t.Run("reciprocal interest on one slot becomes a mutual match", func(t *testing.T) {
		alice := seedUser(t, db, "Alice")
		bob := seedUser(t, db, "Bob")
		slotID := seedSlot(t, db, bob, "Park", 52.5, 13.4, "09:00", "12:00", "{0,1}")

		first, err := matches.ExpressInterest(ctx, alice, bob, slotID)
		require.NoError(t, err)
		assert.False(t, first.MutualMatch)
		assert.Nil(t, first.Match)

		// Bob reciprocates on the same slot even though he owns it.
		second, err := matches.ExpressInterest(ctx, bob, alice, slotID)
		require.NoError(t, err)
		require.True(t, second.MutualMatch)
		require.NotNil(t, second.Match)

		user1, user2 := CanonicalPair(alice, bob)
		assert.Equal(t, user1, second.Match.User1ID)
		assert.Equal(t, user2, second.Match.User2ID)
		assert.Equal(t, database.MatchStatusPending, second.Match.Status)

		var count int
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM matches WHERE availability_id = $1`, slotID).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("expressing interest twice on the same slot conflicts", func(t *testing.T) {
		carol := seedUser(t, db, "Carol")
		dave := seedUser(t, db, "Dave")
		slotID := seedSlot(t, db, dave, "Lake", 52.44, 13.2, "10:00", "13:00", "{5}")

		_, err := matches.ExpressInterest(ctx, carol, dave, slotID)
		require.NoError(t, err)

		_, err = matches.ExpressInterest(ctx, carol, dave, slotID)
		assert.True(t, errors.IsErrorType(err, errors.ErrorTypeConflict))
	})

	t.Run("missing availability is reported as not found", func(t *testing.T) {
		erin := seedUser(t, db, "Erin")
		frank := seedUser(t, db, "Frank")

		_, err := matches.ExpressInterest(ctx, erin, frank, 999999)
		assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
	})

	t.Run("overlap is judged against the slot at the location only", func(t *testing.T) {
		viewer := seedUser(t, db, "Grace")
		other := seedUser(t, db, "Henry")

		// Viewer is free weekday mornings.
		seedSlot(t, db, viewer, "Home", 52.50, 13.40, "09:00", "12:00", "{0,1,2}")
		// Henry's slot at the café never overlaps the viewer's mornings...
		cafeSlot := seedSlot(t, db, other, "Café", 52.52, 13.41, "20:00", "22:00", "{0}")
		// ...but his slot across town does.
		seedSlot(t, db, other, "Gym", 52.40, 13.10, "09:00", "11:00", "{0}")

		people, err := discovery.PeopleAtSlot(ctx, viewer, cafeSlot)
		require.NoError(t, err)
		require.Len(t, people, 1)
		assert.Equal(t, other, people[0].UserID)
		assert.Empty(t, people[0].Overlaps)
	})

	t.Run("people listing resolves an inactive target slot", func(t *testing.T) {
		viewer := seedUser(t, db, "Ivy")
		owner := seedUser(t, db, "Jack")
		slotID := seedSlot(t, db, owner, "Pier", 53.55, 9.97, "15:00", "18:00", "{6}")

		_, err := db.ExecContext(ctx,
			`UPDATE availabilities SET is_active = FALSE WHERE id = $1`, slotID)
		require.NoError(t, err)

		// The deactivated slot no longer lists its owner, but it still
		// resolves to coordinates instead of a not-found error.
		people, err := discovery.PeopleAtSlot(ctx, viewer, slotID)
		require.NoError(t, err)
		assert.Empty(t, people)
	})

	t.Run("locations carry a representative slot id", func(t *testing.T) {
		viewer := seedUser(t, db, "Kara")
		owner := seedUser(t, db, "Liam")
		slotID := seedSlot(t, db, owner, "Plaza", 48.13, 11.58, "12:00", "14:00", "{3}")

		locations, err := discovery.ListLocations(ctx, viewer)
		require.NoError(t, err)

		found := false
		for _, loc := range locations {
			if loc.Availability.ID == slotID {
				found = true
				assert.Equal(t, "Plaza", loc.LocationName)
			}
		}
		assert.True(t, found, "expected the new slot to represent its location")
	})
}
