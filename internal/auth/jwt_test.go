package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	InitializeJWT("test-secret")

	token, err := GenerateAccessToken("user-1", "alice", "staff", false, 15*time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := ValidateToken(token, TokenTypeAccess)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "alice" || claims.Role != "staff" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("expected access token type, got %q", claims.TokenType)
	}
}

func TestRefreshTokenCarriesJTI(t *testing.T) {
	InitializeJWT("test-secret")

	token, jti, err := GenerateRefreshToken("user-1", "alice", "staff", false, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if jti == "" {
		t.Fatal("expected a non-empty jti")
	}

	claims, err := ValidateToken(token, TokenTypeRefresh)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.ID != jti {
		t.Errorf("expected jti %q in claims, got %q", jti, claims.ID)
	}
}

func TestValidateToken_RejectsWrongType(t *testing.T) {
	InitializeJWT("test-secret")

	token, err := GenerateAccessToken("user-1", "alice", "staff", false, 15*time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	// An access token must not pass where a refresh token is expected
	if _, err := ValidateToken(token, TokenTypeRefresh); err == nil {
		t.Error("expected wrong-type token to be rejected")
	}
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	InitializeJWT("test-secret")

	token, err := GenerateAccessToken("user-1", "alice", "staff", false, -time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := ValidateToken(token, TokenTypeAccess); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	InitializeJWT("secret-one")
	token, err := GenerateAccessToken("user-1", "alice", "staff", false, 15*time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	InitializeJWT("secret-two")
	if _, err := ValidateToken(token, TokenTypeAccess); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
}
