package cache

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRedisContainer starts a Redis container for testing.
func startRedisContainer(ctx context.Context, t *testing.T) *RedisConfig {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	port, err := strconv.Atoi(mappedPort.Port())
	require.NoError(t, err)

	return &RedisConfig{Host: host, Port: port}
}

func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	config := startRedisContainer(ctx, t)

	service, err := NewRedisService(config)
	require.NoError(t, err)
	defer service.Close()

	t.Run("SetJSON and GetJSON round trip", func(t *testing.T) {
		type catalogEntry struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		stored := []catalogEntry{{ID: 1, Name: "Hiking"}, {ID: 2, Name: "Jazz"}}

		require.NoError(t, service.SetJSON(ctx, "interests:catalog", stored, CatalogTTL))

		var loaded []catalogEntry
		require.NoError(t, service.GetJSON(ctx, "interests:catalog", &loaded))
		assert.Equal(t, stored, loaded)
	})

	t.Run("miss is distinguishable from failure", func(t *testing.T) {
		var dest interface{}
		err := service.GetJSON(ctx, "never-set", &dest)
		assert.Error(t, err)
		assert.True(t, IsMiss(err))
	})

	t.Run("Delete removes the key", func(t *testing.T) {
		require.NoError(t, service.SetJSON(ctx, "to-delete", "value", 60))
		require.NoError(t, service.Delete(ctx, "to-delete"))

		var dest string
		assert.True(t, IsMiss(service.GetJSON(ctx, "to-delete", &dest)))
	})

	t.Run("HealthCheck answers", func(t *testing.T) {
		assert.NoError(t, service.HealthCheck(ctx))
	})
}
