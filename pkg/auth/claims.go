package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gigdesk/gigdesk-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
// Company roles are intentionally absent: they are loaded per request so
// a role change takes effect without waiting out the token TTL.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	ProfileID *uuid.UUID
	Tier      *enums.MembershipTier
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID    uuid.UUID             `json:"user_id"`
	ProfileID *uuid.UUID            `json:"profile_id,omitempty"`
	Tier      *enums.MembershipTier `json:"tier,omitempty"`
	jwt.RegisteredClaims
}
