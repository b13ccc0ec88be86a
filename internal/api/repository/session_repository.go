package repository

import (
	"context"
	"ctchen222/FindMy/internal/api/models"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:generate mockgen -source=session_repository.go -destination=mocks/session_repository_mock.go -package=mocks

// ErrSessionNotFound is returned when a session does not exist or has expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository stores sessions keyed by their opaque id.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	// Delete removes a session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

const (
	fieldUserID    = "user_id"
	fieldUsername  = "username"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

type redisSessionRepository struct {
	rdb *redis.Client
}

// NewRedisSessionRepository creates a Redis-based SessionRepository. Expiry is
// enforced by the key TTL.
func NewRedisSessionRepository(rdb *redis.Client) SessionRepository {
	return &redisSessionRepository{rdb: rdb}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Create stores the session hash and sets its TTL in one transaction.
func (r *redisSessionRepository) Create(ctx context.Context, session *models.Session) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Create")
	defer span.End()

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}

	key := sessionKey(session.ID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		fieldUserID, strconv.FormatInt(session.UserID, 10),
		fieldUsername, session.Username,
		fieldCreatedAt, session.CreatedAt.Unix(),
		fieldExpiresAt, session.ExpiresAt.Unix(),
	)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

// Get loads a session by id.
func (r *redisSessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	ctx, span := tracer.Start(ctx, "SessionRepository.Get")
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}

	return sessionFromHash(id, data)
}

// sessionFromHash decodes a stored session hash. Any unreadable field makes
// the whole session corrupt.
func sessionFromHash(id string, data map[string]string) (*models.Session, error) {
	ints := make(map[string]int64, 3)
	for _, f := range []string{fieldUserID, fieldCreatedAt, fieldExpiresAt} {
		v, err := strconv.ParseInt(data[f], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt session %s: field %s: %w", id, f, err)
		}
		ints[f] = v
	}

	return &models.Session{
		ID:        id,
		UserID:    ints[fieldUserID],
		Username:  data[fieldUsername],
		CreatedAt: time.Unix(ints[fieldCreatedAt], 0),
		ExpiresAt: time.Unix(ints[fieldExpiresAt], 0),
	}, nil
}

// Delete removes the session key.
func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Delete")
	defer span.End()

	if err := r.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

// MemorySessionRepository keeps sessions in process memory. Used for local
// development and tests.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

// NewMemorySessionRepository creates an empty in-memory SessionRepository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]models.Session),
		now:      time.Now,
	}
}

func (m *MemorySessionRepository) Create(ctx context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
	return nil
}

func (m *MemorySessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.IsExpired(m.now()) {
		_ = m.Delete(ctx, id)
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
