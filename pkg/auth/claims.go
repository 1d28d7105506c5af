package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/marvista/community-portal-backend/pkg/enums"
)

// TokenTypeAccess marks tokens minted for community service access.
const TokenTypeAccess = "community_access"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	ClerkUserID string
	Email       string
	FullName    string
	Role        enums.UserRole
	UnitNumber  *string
	IsActive    bool
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID      uuid.UUID      `json:"user_id"`
	ClerkUserID string         `json:"clerk_user_id"`
	Email       string         `json:"email"`
	FullName    string         `json:"full_name"`
	Role        enums.UserRole `json:"role"`
	UnitNumber  *string        `json:"unit_number,omitempty"`
	IsActive    bool           `json:"is_active"`
	TokenType   string         `json:"type"`
	jwt.RegisteredClaims
}
