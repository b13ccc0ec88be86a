//go:build integration

package repository

import (
	"context"
	"ctchen222/FindMy/internal/api/models"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisSessionRepository(t *testing.T) {
	rdb := newRedis(t)
	repo := NewRedisSessionRepository(rdb)
	ctx := context.Background()

	now := time.Now()
	s := &models.Session{ID: "tok", UserID: 3, Username: "alice", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, now.Unix(), got.CreatedAt.Unix())

	ttl, err := rdb.TTL(ctx, "session:tok").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	require.NoError(t, repo.Delete(ctx, "tok"))
	_, err = repo.Get(ctx, "tok")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, repo.Delete(ctx, "tok"))
}

func TestRedisSessionRepository_RejectsExpired(t *testing.T) {
	repo := NewRedisSessionRepository(newRedis(t))
	err := repo.Create(context.Background(), &models.Session{ID: "x", UserID: 1, ExpiresAt: time.Now().Add(-time.Second)})
	assert.Error(t, err)
}

func TestRedisSessionRepository_CorruptHash(t *testing.T) {
	rdb := newRedis(t)
	repo := NewRedisSessionRepository(rdb)
	ctx := context.Background()

	require.NoError(t, rdb.HSet(ctx, "session:bad", fieldUserID, "3", fieldUsername, "alice").Err())

	s, err := repo.Get(ctx, "bad")
	assert.Nil(t, s)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}
