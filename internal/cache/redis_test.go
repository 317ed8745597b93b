package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-memory stand-in for redis.Client.
type fakeClient struct {
	store  map[string]string
	failed bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{store: make(map[string]string)}
}

func (f *fakeClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.failed {
		cmd.SetErr(assert.AnError)
		return cmd
	}
	f.store[key] = string(value.([]byte))
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeClient) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if f.failed {
		cmd.SetErr(assert.AnError)
		return cmd
	}
	value, ok := f.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(value)
	return cmd
}

func (f *fakeClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, key := range keys {
		if _, ok := f.store[key]; ok {
			delete(f.store, key)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeClient) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.failed {
		cmd.SetErr(assert.AnError)
		return cmd
	}
	cmd.SetVal("PONG")
	return cmd
}

func (f *fakeClient) Close() error { return nil }

func TestSetGetJSON(t *testing.T) {
	ctx := context.Background()
	service := NewRedisServiceWithClient(newFakeClient())

	type entry struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	stored := []entry{{1, "Hiking"}, {2, "Coffee"}}
	require.NoError(t, service.SetJSON(ctx, "interests:catalog", stored, CatalogTTL))

	var loaded []entry
	require.NoError(t, service.GetJSON(ctx, "interests:catalog", &loaded))
	assert.Equal(t, stored, loaded)
}

func TestGetJSONMiss(t *testing.T) {
	service := NewRedisServiceWithClient(newFakeClient())

	var dest string
	err := service.GetJSON(context.Background(), "missing", &dest)
	require.Error(t, err)
	assert.True(t, IsMiss(err))
}

func TestGetJSONFailureIsNotAMiss(t *testing.T) {
	client := newFakeClient()
	client.failed = true
	service := NewRedisServiceWithClient(client)

	var dest string
	err := service.GetJSON(context.Background(), "key", &dest)
	require.Error(t, err)
	assert.False(t, IsMiss(err))
}

func TestSetJSONUnmarshalableValue(t *testing.T) {
	service := NewRedisServiceWithClient(newFakeClient())
	err := service.SetJSON(context.Background(), "bad", make(chan int), 60)
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	service := NewRedisServiceWithClient(newFakeClient())

	require.NoError(t, service.SetJSON(ctx, "key", "value", 60))
	require.NoError(t, service.Delete(ctx, "key"))

	var dest string
	assert.True(t, IsMiss(service.GetJSON(ctx, "key", &dest)))
}

func TestHealthCheck(t *testing.T) {
	healthy := NewRedisServiceWithClient(newFakeClient())
	assert.NoError(t, healthy.HealthCheck(context.Background()))

	broken := newFakeClient()
	broken.failed = true
	assert.Error(t, NewRedisServiceWithClient(broken).HealthCheck(context.Background()))
}
