package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andressep95/session-auth/internal/domain"
	"github.com/andressep95/session-auth/internal/logger"
	"github.com/andressep95/session-auth/internal/repository"
	"github.com/andressep95/session-auth/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepOnce(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionRepository()
	now := time.Now()
	user := uuid.New()

	for i, exp := range []time.Time{now.Add(-time.Hour), now, now.Add(time.Hour)} {
		require.NoError(t, sessions.Create(ctx, &domain.Session{
			ID:        uuid.New(),
			UserID:    user,
			TokenHash: string(rune('a' + i)),
			ExpiresAt: exp,
		}))
	}

	sweeper := NewSessionSweeper(sessions, time.Minute, logger.Nop(), nil)
	sweeper.now = func() time.Time { return now }

	removed, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	live, err := sessions.ListByUser(ctx, user, now)
	require.NoError(t, err)
	assert.Len(t, live, 1)
}

type expiredSweepError struct {
	repository.SessionRepository
}

func (expiredSweepError) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("db down")
}

func TestSweepOnce_Error(t *testing.T) {
	sweeper := NewSessionSweeper(expiredSweepError{}, time.Minute, logger.Nop(), nil)

	_, err := sweeper.SweepOnce(context.Background())
	assert.Error(t, err)
}

type countingSessions struct {
	repository.SessionRepository
	calls chan struct{}
}

func (c countingSessions) DeleteExpired(context.Context, time.Time) (int64, error) {
	select {
	case c.calls <- struct{}{}:
	default:
	}
	return 0, nil
}

func TestRun_StopsOnCancel(t *testing.T) {
	repo := countingSessions{calls: make(chan struct{}, 1)}
	sweeper := NewSessionSweeper(repo, 5*time.Millisecond, logger.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-repo.calls:
	case <-time.After(time.Second):
		t.Fatal("sweeper never ran")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRun_DisabledReturnsImmediately(t *testing.T) {
	sweeper := NewSessionSweeper(memory.NewSessionRepository(), 0, logger.Nop(), nil)

	done := make(chan struct{})
	go func() {
		sweeper.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled sweeper kept running")
	}
}
