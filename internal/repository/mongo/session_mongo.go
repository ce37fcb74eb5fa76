package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andressep95/session-auth/internal/domain"
	"github.com/andressep95/session-auth/internal/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type sessionDocument struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	TokenHash  string    `bson:"token_hash"`
	UserAgent  string    `bson:"user_agent"`
	IPAddress  string    `bson:"ip_address"`
	ExpiresAt  time.Time `bson:"expires_at"`
	LastUsedAt time.Time `bson:"last_used_at"`
	CreatedAt  time.Time `bson:"created_at"`
}

func newSessionDocument(s *domain.Session) sessionDocument {
	return sessionDocument{
		ID:         s.ID.String(),
		UserID:     s.UserID.String(),
		TokenHash:  s.TokenHash,
		UserAgent:  s.UserAgent,
		IPAddress:  s.IPAddress,
		ExpiresAt:  s.ExpiresAt,
		LastUsedAt: s.LastUsedAt,
		CreatedAt:  s.CreatedAt,
	}
}

func (d *sessionDocument) toDomain() (*domain.Session, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid session user id %q: %w", d.UserID, err)
	}
	return &domain.Session{
		ID:         id,
		UserID:     userID,
		TokenHash:  d.TokenHash,
		UserAgent:  d.UserAgent,
		IPAddress:  d.IPAddress,
		ExpiresAt:  d.ExpiresAt,
		LastUsedAt: d.LastUsedAt,
		CreatedAt:  d.CreatedAt,
	}, nil
}

type sessionRepository struct {
	coll *mongo.Collection
}

// NewSessionRepository creates a new MongoDB session repository
func NewSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &sessionRepository{coll: db.Collection(sessionsCollection)}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if _, err := r.coll.InsertOne(ctx, newSessionDocument(session)); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) GetByToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var doc sessionDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "token_hash", Value: tokenHash}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session by token: %w", err)
	}
	return doc.toDomain()
}

// Consume relies on findAndModify being atomic per document.
func (r *sessionRepository) Consume(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var doc sessionDocument
	err := r.coll.FindOneAndDelete(ctx, bson.D{{Key: "token_hash", Value: tokenHash}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to consume session: %w", err)
	}
	return doc.toDomain()
}

func (r *sessionRepository) ListByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.Session, error) {
	filter := bson.D{
		{Key: "user_id", Value: userID.String()},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions by user id: %w", err)
	}

	var docs []sessionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	sessions := make([]*domain.Session, 0, len(docs))
	for i := range docs {
		s, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (r *sessionRepository) DeleteByToken(ctx context.Context, tokenHash string) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "token_hash", Value: tokenHash}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete session by token: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *sessionRepository) DeleteByID(ctx context.Context, userID, id uuid.UUID) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "user_id", Value: userID.String()},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete session by id: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID uuid.UUID, exceptTokenHash string) (int64, error) {
	filter := bson.D{{Key: "user_id", Value: userID.String()}}
	if exceptTokenHash != "" {
		filter = append(filter, bson.E{Key: "token_hash", Value: bson.D{{Key: "$ne", Value: exceptTokenHash}}})
	}

	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions by user id: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: now}}}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *sessionRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}
