package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andressep95/session-auth/internal/domain"
	"github.com/google/uuid"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("not found")

// SessionRepository is the session store. Tokens are addressed by their hash.
//
// Rows past their expiry may still be returned until the sweep removes
// them; callers must check Session.IsExpired themselves.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	// Consume deletes the session bound to tokenHash and returns it in one
	// atomic step. Of two concurrent callers at most one gets the row; the
	// other gets ErrNotFound.
	Consume(ctx context.Context, tokenHash string) (*domain.Session, error)
	// ListByUser returns the sessions of a user that have not expired at now,
	// newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.Session, error)
	// DeleteByToken never fails on a miss; it reports 0 instead.
	DeleteByToken(ctx context.Context, tokenHash string) (int64, error)
	// DeleteByID removes one session, but only when it belongs to userID.
	DeleteByID(ctx context.Context, userID, id uuid.UUID) (int64, error)
	// DeleteByUser removes every session of the user except the one bound
	// to exceptTokenHash, when it is not empty.
	DeleteByUser(ctx context.Context, userID uuid.UUID, exceptTokenHash string) (int64, error)
	// DeleteExpired purges rows whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}
