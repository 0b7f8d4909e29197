package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload is what MintAccessToken signs.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	JTI    string
}

// AccessTokenClaims is the bearer token issued by the account service.
// Older tokens carry the user only in sub.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id,omitempty"`
	Email  string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the shopper the token belongs to.
func (c *AccessTokenClaims) Identity() (uuid.UUID, error) {
	if c.UserID != uuid.Nil {
		return c.UserID, nil
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("token carries no user id")
	}
	return id, nil
}
