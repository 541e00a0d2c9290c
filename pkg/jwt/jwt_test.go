package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/alarmdryros/cuadrilla-app-sub000/config"
)

func testManager(accessTTL time.Duration) *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:               "unit-test-secret-0123456789",
		AccessTokenTTL:          accessTTL,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 720 * time.Hour,
	})
}

func TestManager_AccessTokenRoundTrip(t *testing.T) {
	m := testManager(15 * time.Minute)

	token, err := m.GenerateAccessToken("user-001", "capataz", "member-001")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "user-001" {
		t.Errorf("UserID = %s, want user-001", claims.UserID)
	}
	if claims.Role != "capataz" {
		t.Errorf("Role = %s, want capataz", claims.Role)
	}
	if claims.MemberID != "member-001" {
		t.Errorf("MemberID = %s, want member-001", claims.MemberID)
	}
	if claims.TokenType != "access" {
		t.Errorf("TokenType = %s, want access", claims.TokenType)
	}
	if claims.ID == "" {
		t.Error("expected non-empty jti")
	}
}

func TestManager_RefreshTokenType(t *testing.T) {
	m := testManager(15 * time.Minute)

	token, err := m.GenerateRefreshToken("user-001", "admin", "", true)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.TokenType != "refresh" {
		t.Errorf("TokenType = %s, want refresh", claims.TokenType)
	}
	if !claims.RememberMe {
		t.Error("expected RememberMe to survive the round trip")
	}
}

func TestManager_ExpiredToken(t *testing.T) {
	m := testManager(-time.Minute)

	token, err := m.GenerateAccessToken("user-001", "costalero", "member-002")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	_, err = m.ParseToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestManager_TamperedToken(t *testing.T) {
	m := testManager(15 * time.Minute)

	token, err := m.GenerateAccessToken("user-001", "admin", "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	other := NewManager(&config.AuthConfig{
		JWTSecret:      "another-secret-9876543210",
		AccessTokenTTL: 15 * time.Minute,
	})
	if _, err := other.ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for wrong secret, got %v", err)
	}

	if _, err := m.ParseToken(token + "x"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for tampered token, got %v", err)
	}
}
