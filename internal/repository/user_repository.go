package repository

import (
	"context"

	"github.com/andressep95/session-auth/internal/domain"
	"github.com/google/uuid"
)

// UserRepository is the credential store.
type UserRepository interface {
	// Create persists a new user. It returns domain.ErrEmailTaken when the
	// (lowercased) email is already registered.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetByEmail expects an already normalized email and returns ErrNotFound on a miss.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Ping(ctx context.Context) error
}
