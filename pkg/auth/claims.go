package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID string
}

// AccessTokenClaims represents the typed JWT issued to clients. The user id is
// carried in the standard subject claim and mirrored in the legacy "id" claim
// older clients were issued.
type AccessTokenClaims struct {
	LegacyUserID string `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the authenticated user id, preferring the subject claim.
func (c *AccessTokenClaims) UserID() string {
	if c == nil {
		return ""
	}
	if sub := strings.TrimSpace(c.Subject); sub != "" {
		return sub
	}
	return strings.TrimSpace(c.LegacyUserID)
}
