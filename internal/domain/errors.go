package domain

import (
	"errors"
	"strings"
)

var (
	// ErrEmailTaken is returned when signing up with an email that already exists.
	ErrEmailTaken = errors.New("an account with this email already exists")

	// ErrSessionNotFound is returned when revoking a session the caller does not own.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnauthorized is the parent of every UnauthorizedError.
	ErrUnauthorized = errors.New("unauthorized")
)

// UnauthorizedReason tells which check rejected a request. It is logged,
// never sent to the client.
type UnauthorizedReason string

const (
	ReasonBadCredentials UnauthorizedReason = "bad_credentials"
	ReasonMissingToken   UnauthorizedReason = "missing_token"
	ReasonInvalidToken   UnauthorizedReason = "invalid_token"
	ReasonExpiredToken   UnauthorizedReason = "expired_token"
	ReasonDeviceMismatch UnauthorizedReason = "device_mismatch"
)

type UnauthorizedError struct {
	Reason UnauthorizedReason
}

func (e *UnauthorizedError) Error() string {
	return "unauthorized: " + string(e.Reason)
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

var (
	ErrBadCredentials = &UnauthorizedError{Reason: ReasonBadCredentials}
	ErrMissingToken   = &UnauthorizedError{Reason: ReasonMissingToken}
	ErrInvalidToken   = &UnauthorizedError{Reason: ReasonInvalidToken}
	ErrExpiredToken   = &UnauthorizedError{Reason: ReasonExpiredToken}
	ErrDeviceMismatch = &UnauthorizedError{Reason: ReasonDeviceMismatch}
)

// FieldError is a single failed input rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages(), "; ")
}

// Messages returns the field messages in order.
func (e *ValidationError) Messages() []string {
	messages := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		messages = append(messages, f.Message)
	}
	return messages
}
