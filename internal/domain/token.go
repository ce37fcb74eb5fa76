package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"-"`
}

// Claims is the access token payload. The subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Profile projects validated claims; it never touches a store.
func (c *Claims) Profile() Profile {
	return Profile{
		ID:    c.Subject,
		Email: c.Email,
		Name:  c.Name,
	}
}
