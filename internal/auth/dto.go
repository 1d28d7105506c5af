package auth

import (
	"github.com/marvista/community-portal-backend/internal/users"
)

// LoginInput carries the provider session token plus request metadata used
// for the audit trail.
type LoginInput struct {
	ClerkSessionToken string
	Service           string
	IPAddress         *string
	UserAgent         *string
}

// LoginResponse is the token pair handed back after a successful exchange.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int            `json:"expires_in"`
	User         *users.UserDTO `json:"user"`
}
