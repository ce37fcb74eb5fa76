package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andressep95/session-auth/internal/domain"
	"github.com/andressep95/session-auth/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	require.NoError(t, repo.Create(ctx, &domain.User{ID: uuid.New(), Email: "alice@example.com"}))
	err := repo.Create(ctx, &domain.User{ID: uuid.New(), Email: "ALICE@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	id := uuid.New()
	require.NoError(t, repo.Create(ctx, &domain.User{ID: id, Email: "a@b.c", Name: "Alice"}))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	got.Name = "Mallory"

	again, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Name)
}

func session(userID uuid.UUID, hash string, expires time.Time) *domain.Session {
	return &domain.Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expires,
		CreatedAt: expires.Add(-24 * time.Hour),
	}
}

func TestSessionRepository_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	require.NoError(t, repo.Create(ctx, session(uuid.New(), "h1", time.Now().Add(time.Hour))))

	got, err := repo.Consume(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "h1", got.TokenHash)

	_, err = repo.Consume(ctx, "h1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByToken(ctx, "h1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepository_ConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	require.NoError(t, repo.Create(ctx, session(uuid.New(), "race", time.Now().Add(time.Hour))))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Consume(ctx, "race"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}

func TestSessionRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	now := time.Now()
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, repo.Create(ctx, session(alice, "a1", now.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, session(alice, "a2", now.Add(2*time.Hour))))
	require.NoError(t, repo.Create(ctx, session(alice, "a-old", now.Add(-time.Minute))))
	require.NoError(t, repo.Create(ctx, session(bob, "b1", now.Add(time.Hour))))

	live, err := repo.ListByUser(ctx, alice, now)
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, "a2", live[0].TokenHash)

	n, err := repo.DeleteByUser(ctx, alice, "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = repo.GetByToken(ctx, "a1")
	assert.NoError(t, err)
	_, err = repo.GetByToken(ctx, "b1")
	assert.NoError(t, err)

	n, err = repo.DeleteByToken(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionRepository_DeleteByIDChecksOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	alice, bob := uuid.New(), uuid.New()

	s := session(alice, "a1", time.Now().Add(time.Hour))
	require.NoError(t, repo.Create(ctx, s))

	n, err := repo.DeleteByID(ctx, bob, s.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.DeleteByID(ctx, alice, s.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.GetByToken(ctx, "a1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	now := time.Now()
	user := uuid.New()

	require.NoError(t, repo.Create(ctx, session(user, "dead", now.Add(-time.Second))))
	require.NoError(t, repo.Create(ctx, session(user, "edge", now)))
	require.NoError(t, repo.Create(ctx, session(user, "live", now.Add(time.Second))))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = repo.GetByToken(ctx, "live")
	assert.NoError(t, err)
}
