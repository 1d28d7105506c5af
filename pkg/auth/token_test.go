package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marvista/community-portal-backend/pkg/config"
	"github.com/marvista/community-portal-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "community-auth-service",
		ExpirationMinutes: 30,
	}
}

func testPayload() AccessTokenPayload {
	return AccessTokenPayload{
		UserID:      uuid.New(),
		ClerkUserID: "user_2abc",
		Email:       "resident@example.com",
		FullName:    "Test Resident",
		Role:        enums.UserRoleHomeowner,
		IsActive:    true,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	payload := testPayload()
	now := time.Now().UTC()

	signed, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if claims.UserID != payload.UserID {
		t.Fatalf("user id mismatch: %s", claims.UserID)
	}
	if claims.Role != enums.UserRoleHomeowner {
		t.Fatalf("role mismatch: %s", claims.Role)
	}
	if claims.ClerkUserID != payload.ClerkUserID {
		t.Fatalf("clerk id mismatch: %s", claims.ClerkUserID)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Fatalf("token type mismatch: %s", claims.TokenType)
	}
	if claims.ID == "" {
		t.Fatalf("expected generated jti")
	}
}

func TestMintRequiresConfig(t *testing.T) {
	payload := testPayload()
	now := time.Now().UTC()

	if _, err := MintAccessToken(config.JWTConfig{Issuer: "x", ExpirationMinutes: 1}, now, payload); err == nil {
		t.Fatalf("expected error without secret")
	}
	if _, err := MintAccessToken(config.JWTConfig{Secret: "x", ExpirationMinutes: 1}, now, payload); err == nil {
		t.Fatalf("expected error without issuer")
	}
	if _, err := MintAccessToken(config.JWTConfig{Secret: "x", Issuer: "y"}, now, payload); err == nil {
		t.Fatalf("expected error without expiration")
	}
}

func TestMintRejectsInvalidRole(t *testing.T) {
	payload := testPayload()
	payload.Role = enums.UserRole("warlord")

	if _, err := MintAccessToken(testJWTConfig(), time.Now().UTC(), payload); err == nil {
		t.Fatalf("expected error for invalid role")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	past := time.Now().UTC().Add(-2 * time.Hour)

	signed, err := MintAccessToken(cfg, past, testPayload())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatalf("expected expired token to fail validation")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now().UTC(), testPayload())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseAccessToken(other, signed); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now().UTC(), testPayload())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := ParseAccessToken(cfg, tampered); err == nil {
		t.Fatalf("expected tampered token to fail")
	}
}
