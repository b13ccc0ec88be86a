package repository

import (
	"context"
	"ctchen222/FindMy/internal/api/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	now := time.Now()
	s := &models.Session{ID: "abc", UserID: 7, Username: "alice", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "alice", got.Username)

	require.NoError(t, repo.Delete(ctx, "abc"))
	_, err = repo.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting twice is fine.
	assert.NoError(t, repo.Delete(ctx, "abc"))
}

func TestMemorySessionRepository_Expired(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	now := time.Now()
	repo.now = func() time.Time { return now }
	require.NoError(t, repo.Create(ctx, &models.Session{ID: "old", UserID: 1, ExpiresAt: now.Add(time.Minute)}))

	repo.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := repo.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, repo.Len())
}

func TestSessionFromHash(t *testing.T) {
	valid := map[string]string{
		fieldUserID:    "7",
		fieldUsername:  "alice",
		fieldCreatedAt: "1700000000",
		fieldExpiresAt: "1700086400",
	}

	got, err := sessionFromHash("tok", valid)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, int64(1700086400), got.ExpiresAt.Unix())

	for _, field := range []string{fieldUserID, fieldCreatedAt, fieldExpiresAt} {
		for _, bad := range []string{"", "soon"} {
			t.Run(field+"="+bad, func(t *testing.T) {
				data := make(map[string]string, len(valid))
				for k, v := range valid {
					data[k] = v
				}
				data[field] = bad

				s, err := sessionFromHash("tok", data)
				assert.Nil(t, s)
				require.Error(t, err)
				assert.Contains(t, err.Error(), "corrupt session tok")
			})
		}
	}
}
