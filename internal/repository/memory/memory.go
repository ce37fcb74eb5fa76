// Package memory holds process-local stores used for development and tests.
// Data is lost when the process exits.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andressep95/session-auth/internal/domain"
	"github.com/andressep95/session-auth/internal/repository"
	"github.com/google/uuid"
)

type userRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]uuid.UUID
}

// NewUserRepository creates an in-memory user repository
func NewUserRepository() repository.UserRepository {
	return &userRepository{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := domain.NormalizeEmail(user.Email)
	if _, ok := r.byEmail[email]; ok {
		return domain.ErrEmailTaken
	}

	u := *user
	r.byID[u.ID] = &u
	r.byEmail[email] = u.ID
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *userRepository) Ping(context.Context) error { return nil }

type sessionRepository struct {
	mu      sync.Mutex
	byToken map[string]*domain.Session
}

// NewSessionRepository creates an in-memory session repository. A single
// mutex guards every operation, so Consume is trivially atomic.
func NewSessionRepository() repository.SessionRepository {
	return &sessionRepository{byToken: make(map[string]*domain.Session)}
}

func (r *sessionRepository) Create(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := *session
	r.byToken[s.TokenHash] = &s
	return nil
}

func (r *sessionRepository) GetByToken(_ context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byToken[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *sessionRepository) Consume(_ context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byToken[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.byToken, tokenHash)
	return s, nil
}

func (r *sessionRepository) ListByUser(_ context.Context, userID uuid.UUID, now time.Time) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sessions []*domain.Session
	for _, s := range r.byToken {
		if s.UserID == userID && !s.IsExpired(now) {
			cp := *s
			sessions = append(sessions, &cp)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (r *sessionRepository) DeleteByToken(_ context.Context, tokenHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[tokenHash]; !ok {
		return 0, nil
	}
	delete(r.byToken, tokenHash)
	return 1, nil
}

func (r *sessionRepository) DeleteByID(_ context.Context, userID, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for hash, s := range r.byToken {
		if s.ID == id && s.UserID == userID {
			delete(r.byToken, hash)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *sessionRepository) DeleteByUser(_ context.Context, userID uuid.UUID, exceptTokenHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for hash, s := range r.byToken {
		if s.UserID != userID || (exceptTokenHash != "" && hash == exceptTokenHash) {
			continue
		}
		delete(r.byToken, hash)
		n++
	}
	return n, nil
}

func (r *sessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for hash, s := range r.byToken {
		if s.IsExpired(now) {
			delete(r.byToken, hash)
			n++
		}
	}
	return n, nil
}

func (r *sessionRepository) Ping(context.Context) error { return nil }
