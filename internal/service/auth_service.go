package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/andressep95/session-auth/internal/config"
	"github.com/andressep95/session-auth/internal/domain"
	"github.com/andressep95/session-auth/internal/metrics"
	"github.com/andressep95/session-auth/internal/repository"
	"github.com/andressep95/session-auth/pkg/hash"
	"github.com/andressep95/session-auth/pkg/jwt"
	"github.com/google/uuid"
)

type AuthService struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	tokenService *jwt.TokenService
	cfg          *config.Config
	log          *slog.Logger
	metrics      *metrics.Recorder
	now          func() time.Time
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,bcryptmax,password"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by sign-up and sign-in. The refresh token travels
// in a cookie, so only the access token is serialized.
type AuthResponse struct {
	Tokens *domain.TokenPair
	User   domain.Profile
}

// SessionView is a session as shown to its owner.
type SessionView struct {
	ID         uuid.UUID `json:"id"`
	UserAgent  string    `json:"userAgent"`
	IPAddress  string    `json:"ipAddress"`
	CreatedAt  time.Time `json:"createdAt"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Current    bool      `json:"current"`
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	tokenService *jwt.TokenService,
	cfg *config.Config,
	log *slog.Logger,
	rec *metrics.Recorder,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		tokenService: tokenService,
		cfg:          cfg,
		log:          log.With("component", "auth_service"),
		metrics:      rec,
		now:          time.Now,
	}
}

func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest, device domain.DeviceContext) (resp *AuthResponse, err error) {
	defer func() { s.record("signup", err) }()

	email := domain.NormalizeEmail(req.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		s.log.Warn("sign-up with registered email", "user_id", existing.ID)
		return nil, domain.ErrEmailTaken
	}

	passwordHash, err := hash.HashPassword(req.Password, s.cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         req.Name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index still catches a concurrent sign-up with the same email.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			s.log.Warn("sign-up with registered email", "email", maskEmail(email))
		}
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, user, device)
	if err != nil {
		return nil, err
	}

	s.log.Info("user signed up", "user_id", user.ID)
	return &AuthResponse{Tokens: tokens, User: user.Profile()}, nil
}

// Authenticate verifies an email and password pair. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (user *domain.User, err error) {
	defer func() { s.record("authenticate", err) }()

	email = domain.NormalizeEmail(email)

	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("sign-in with unknown email", "email", maskEmail(email))
			return nil, domain.ErrBadCredentials
		}
		return nil, err
	}

	valid, err := hash.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		s.log.Warn("sign-in with wrong password", "user_id", user.ID)
		return nil, domain.ErrBadCredentials
	}

	return user, nil
}

// SignIn opens a session for a user whose credentials were already checked
// by Authenticate.
func (s *AuthService) SignIn(ctx context.Context, user *domain.User, device domain.DeviceContext) (resp *AuthResponse, err error) {
	defer func() { s.record("signin", err) }()

	tokens, err := s.issueTokens(ctx, user, device)
	if err != nil {
		return nil, err
	}

	s.log.Info("user signed in", "user_id", user.ID)
	return &AuthResponse{Tokens: tokens, User: user.Profile()}, nil
}

// Refresh rotates a refresh token. The presented token is consumed before
// anything else is checked, so it can never be redeemed twice; a second
// presentation finds nothing and is treated as a replay.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, device domain.DeviceContext) (pair *domain.TokenPair, err error) {
	defer func() { s.record("refresh", err) }()

	if refreshToken == "" {
		return nil, domain.ErrMissingToken
	}

	session, err := s.sessionRepo.Consume(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("refresh with unknown or already rotated token", "ip", device.IPAddress)
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	if session.IsExpired(s.now()) {
		s.log.Info("refresh with expired token", "user_id", session.UserID, "session_id", session.ID)
		return nil, domain.ErrExpiredToken
	}

	if session.UserAgent != device.UserAgent {
		s.log.Warn("refresh from a different device",
			"user_id", session.UserID,
			"session_id", session.ID,
			"stored_user_agent", session.UserAgent,
			"presented_user_agent", device.UserAgent,
			"strict", s.cfg.Auth.StrictDeviceCheck,
		)
		if s.cfg.Auth.StrictDeviceCheck {
			return nil, domain.ErrDeviceMismatch
		}
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("refresh for a user that no longer exists", "user_id", session.UserID)
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	return s.issueTokens(ctx, user, device)
}

// Logout ends the session bound to refreshToken. An empty or unknown token
// is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) (err error) {
	defer func() { s.record("logout", err) }()

	if refreshToken == "" {
		s.log.Debug("logout without refresh token")
		return nil
	}

	deleted, err := s.sessionRepo.DeleteByToken(ctx, hashToken(refreshToken))
	if err != nil {
		return err
	}
	if deleted == 0 {
		s.log.Info("logout with unknown refresh token")
	}

	return nil
}

// LogoutAllDevices removes every session of the user. When exceptToken is
// set, the session bound to it survives.
func (s *AuthService) LogoutAllDevices(ctx context.Context, userID uuid.UUID, exceptToken string) (deleted int64, err error) {
	defer func() { s.record("logout_all", err) }()

	exceptHash := ""
	if exceptToken != "" {
		exceptHash = hashToken(exceptToken)
	}

	deleted, err = s.sessionRepo.DeleteByUser(ctx, userID, exceptHash)
	if err != nil {
		return 0, err
	}

	s.log.Info("logged out devices", "user_id", userID, "sessions", deleted, "kept_current", exceptHash != "")
	return deleted, nil
}

// RevokeSession ends one of the user's sessions by id. Sessions of other
// users are reported as not found.
func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) (err error) {
	defer func() { s.record("revoke_session", err) }()

	deleted, err := s.sessionRepo.DeleteByID(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrSessionNotFound
	}

	s.log.Info("session revoked", "user_id", userID, "session_id", sessionID)
	return nil
}

// GetProfile projects already validated claims. It never reads a store.
func (s *AuthService) GetProfile(claims *domain.Claims) domain.Profile {
	return claims.Profile()
}

// ListSessions returns the user's live sessions; the one bound to
// currentToken is flagged.
func (s *AuthService) ListSessions(ctx context.Context, userID uuid.UUID, currentToken string) ([]SessionView, error) {
	sessions, err := s.sessionRepo.ListByUser(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	currentHash := ""
	if currentToken != "" {
		currentHash = hashToken(currentToken)
	}

	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, SessionView{
			ID:         session.ID,
			UserAgent:  session.UserAgent,
			IPAddress:  session.IPAddress,
			CreatedAt:  session.CreatedAt,
			LastUsedAt: session.LastUsedAt,
			ExpiresAt:  session.ExpiresAt,
			Current:    currentHash != "" && session.TokenHash == currentHash,
		})
	}

	return views, nil
}

// ValidateAccessToken checks a bearer token; every failure is reported as
// an invalid token.
func (s *AuthService) ValidateAccessToken(token string) (*domain.Claims, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}

	claims, err := s.tokenService.ValidateAccessToken(token)
	if err != nil {
		s.log.Debug("rejected access token", "error", err)
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

// UserID extracts the subject of validated claims.
func UserID(claims *domain.Claims) (uuid.UUID, error) {
	if claims == nil {
		return uuid.Nil, domain.ErrMissingToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return id, nil
}

// issueTokens mints an access token and persists a fresh refresh session.
func (s *AuthService) issueTokens(ctx context.Context, user *domain.User, device domain.DeviceContext) (*domain.TokenPair, error) {
	accessToken, err := s.tokenService.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := generateOpaqueToken(s.cfg.Auth.RefreshTokenBytes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &domain.Session{
		ID:         uuid.New(),
		UserID:     user.ID,
		TokenHash:  hashToken(refreshToken),
		UserAgent:  device.UserAgent,
		IPAddress:  device.IPAddress,
		ExpiresAt:  now.Add(s.cfg.JWT.RefreshTokenLife.Duration()),
		LastUsedAt: now,
		CreatedAt:  now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) record(operation string, err error) {
	switch {
	case err == nil:
		s.metrics.Operation(operation, metrics.OutcomeSuccess)
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrSessionNotFound):
		s.metrics.Operation(operation, metrics.OutcomeFailure)
	default:
		s.metrics.Operation(operation, metrics.OutcomeError)
	}
}

func generateOpaqueToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// maskEmail keeps the first character of the local part and the domain,
// enough to correlate log lines without recording the address.
func maskEmail(email string) string {
	local, domainPart, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	r, _ := utf8.DecodeRuneInString(local)
	return string(r) + "***@" + domainPart
}

// hashToken creates a SHA-256 hash of the token
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
