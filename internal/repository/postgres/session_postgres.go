package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andressep95/session-auth/internal/domain"
	"github.com/andressep95/session-auth/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const sessionColumns = `id, user_id, token_hash, user_agent, ip_address, expires_at, last_used_at, created_at`

type sessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Create inserts a new session into the database
func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (
			id, user_id, token_hash, user_agent,
			ip_address, expires_at, last_used_at, created_at
		) VALUES (
			:id, :user_id, :token_hash, :user_agent,
			:ip_address, :expires_at, :last_used_at, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByToken retrieves a session by its token hash, expired or not
func (r *sessionRepository) GetByToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE token_hash = $1`

	var session domain.Session
	err := r.db.GetContext(ctx, &session, query, tokenHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session by token: %w", err)
	}

	return &session, nil
}

// Consume deletes the session by token hash and returns the deleted row.
// The row lock taken by DELETE makes concurrent consumers of the same
// token serialize; the second one sees no row.
func (r *sessionRepository) Consume(ctx context.Context, tokenHash string) (*domain.Session, error) {
	query := `DELETE FROM sessions WHERE token_hash = $1 RETURNING ` + sessionColumns

	var session domain.Session
	err := r.db.GetContext(ctx, &session, query, tokenHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to consume session: %w", err)
	}

	return &session, nil
}

// ListByUser retrieves the live sessions of a user
func (r *sessionRepository) ListByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at DESC`

	var sessions []*domain.Session
	err := r.db.SelectContext(ctx, &sessions, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions by user id: %w", err)
	}

	return sessions, nil
}

// DeleteByToken removes a session by token hash
func (r *sessionRepository) DeleteByToken(ctx context.Context, tokenHash string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session by token: %w", err)
	}

	return rowsAffected(result)
}

func (r *sessionRepository) DeleteByID(ctx context.Context, userID, id uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session by id: %w", err)
	}

	return rowsAffected(result)
}

// DeleteByUser removes all sessions of a user, optionally keeping one
func (r *sessionRepository) DeleteByUser(ctx context.Context, userID uuid.UUID, exceptTokenHash string) (int64, error) {
	var (
		result sql.Result
		err    error
	)

	if exceptTokenHash == "" {
		result, err = r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	} else {
		result, err = r.db.ExecContext(ctx,
			`DELETE FROM sessions WHERE user_id = $1 AND token_hash <> $2`, userID, exceptTokenHash)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions by user id: %w", err)
	}

	return rowsAffected(result)
}

// DeleteExpired removes all expired sessions from the database
func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return rowsAffected(result)
}

func (r *sessionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func rowsAffected(result sql.Result) (int64, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
