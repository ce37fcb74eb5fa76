package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnauthorizedErrors_UnwrapToParent(t *testing.T) {
	for _, err := range []error{ErrBadCredentials, ErrMissingToken, ErrInvalidToken, ErrExpiredToken, ErrDeviceMismatch} {
		wrapped := fmt.Errorf("refresh: %w", err)
		assert.ErrorIs(t, wrapped, ErrUnauthorized)
		assert.ErrorIs(t, wrapped, err)
	}

	assert.False(t, errors.Is(ErrExpiredToken, ErrInvalidToken))
}

func TestUnauthorizedError_ReasonViaAs(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrExpiredToken)

	var unauthorized *UnauthorizedError
	if assert.ErrorAs(t, err, &unauthorized) {
		assert.Equal(t, ReasonExpiredToken, unauthorized.Reason)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "email", Message: "email must be a valid email address"},
		{Field: "password", Message: "password must be at least 8 characters"},
	}}

	assert.Equal(t, "email must be a valid email address; password must be at least 8 characters", err.Error())
	assert.Len(t, err.Messages(), 2)
}

func TestSession_IsExpired(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	s := &Session{ExpiresAt: now.Add(time.Second)}
	assert.False(t, s.IsExpired(now))

	s.ExpiresAt = now
	assert.True(t, s.IsExpired(now))

	s.ExpiresAt = now.Add(-time.Hour)
	assert.True(t, s.IsExpired(now))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}

func TestClaims_Profile(t *testing.T) {
	c := &Claims{Email: "a@b.c", Name: "Alice"}
	c.Subject = "42"

	assert.Equal(t, Profile{ID: "42", Email: "a@b.c", Name: "Alice"}, c.Profile())
}
