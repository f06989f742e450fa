package auth

import (
	"testing"
	"time"
)

func testManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        expiry,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "ucms-test",
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	m := testManager(time.Hour)

	token, err := m.GenerateAccessToken(7, "student@example.com", "student")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 7 {
		t.Errorf("UserID = %d, want 7", claims.UserID)
	}
	if claims.Role != "student" {
		t.Errorf("Role = %q, want student", claims.Role)
	}
	if claims.TokenType != "access" {
		t.Errorf("TokenType = %q, want access", claims.TokenType)
	}
	if claims.Issuer != "ucms-test" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("expected a JTI")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m := testManager(time.Hour)
	other := NewJWTManager(JWTConfig{Secret: "other-secret", Expiry: time.Hour, Issuer: "ucms-test"})

	token, err := m.GenerateAccessToken(1, "a@b.c", "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := other.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("ValidateToken with wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m := testManager(-time.Minute)

	token, err := m.GenerateAccessToken(1, "a@b.c", "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := m.ValidateToken(token); err != ErrExpiredToken {
		t.Errorf("ValidateToken on expired token = %v, want ErrExpiredToken", err)
	}
}

func TestRefreshAccessTokenRequiresRefreshType(t *testing.T) {
	m := testManager(time.Hour)

	access, err := m.GenerateAccessToken(1, "a@b.c", "student")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := m.RefreshAccessToken(access); err != ErrInvalidToken {
		t.Errorf("RefreshAccessToken with access token = %v, want ErrInvalidToken", err)
	}

	refresh, err := m.GenerateRefreshToken(1, "a@b.c", "student")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	newAccess, err := m.RefreshAccessToken(refresh)
	if err != nil {
		t.Fatalf("RefreshAccessToken: %v", err)
	}

	claims, err := m.ValidateToken(newAccess)
	if err != nil {
		t.Fatalf("ValidateToken on refreshed token: %v", err)
	}
	if claims.TokenType != "access" {
		t.Errorf("refreshed TokenType = %q, want access", claims.TokenType)
	}
}
