package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc, err := NewRedisService("redis://"+mr.Addr(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	return svc, mr
}

func TestRedisService_Basic(t *testing.T) {
	svc, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, svc.Ping(ctx))

	key := AssetKey("https://bestdori.com/api/events/1.json")
	require.NoError(t, svc.Set(ctx, key, `{"eventName":[]}`, time.Minute))

	got, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"eventName":[]}`, got)
	assert.Equal(t, time.Minute, mr.TTL(key))

	exists, err := svc.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, svc.Del(ctx, key))
	exists, err = svc.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	got, err = svc.Get(ctx, key)
	require.NoError(t, err, "missing key is not an error")
	assert.Empty(t, got)
}

func TestRedisService_BareAddress(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc, err := NewRedisService(mr.Addr(), logger)
	require.NoError(t, err)
	defer svc.Close()

	assert.NoError(t, svc.WaitForConnection(context.Background()))
}

func TestRedisService_BadURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	_, err := NewRedisService("redis://localhost:6379/notadb", logger)
	assert.Error(t, err)
}

func TestRedisService_ServerDown(t *testing.T) {
	svc, mr := setupTestRedis(t)
	mr.Close()

	ctx := context.Background()
	assert.Error(t, svc.Ping(ctx))
	_, err := svc.Get(ctx, "k")
	assert.Error(t, err)

	svc.retryDelay = time.Millisecond
	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.Error(t, svc.WaitForConnection(ctx))
}

func TestMockCache(t *testing.T) {
	m := NewMockCache()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, m.Set(ctx, "b", "2", time.Hour))

	v, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	assert.Equal(t, 2, m.Len())
	assert.Len(t, m.SetCalls, 2)
	assert.Equal(t, time.Hour, m.SetCalls[1].Expiration)

	ok, _ := m.Exists(ctx, "zzz", "b")
	assert.True(t, ok)
	require.NoError(t, m.Del(ctx, "b"))
	ok, _ = m.Exists(ctx, "b")
	assert.False(t, ok)

	boom := errors.New("boom")
	m.GetFunc = func(ctx context.Context, key string) (string, error) { return "", boom }
	_, err = m.Get(ctx, "a")
	assert.ErrorIs(t, err, boom)
}
