package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Token types carried in the token_type claim. The refresh endpoint only
// accepts refresh tokens and the auth middleware only accepts access tokens.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var jwtSecret []byte

// Claims represents the JWT token claims for both token types
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	IsAdmin   bool   `json:"is_admin"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// InitializeJWT sets the JWT secret key
func InitializeJWT(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateAccessToken creates a short-lived access token for a user
func GenerateAccessToken(userID, username, role string, isAdmin bool, ttl time.Duration) (string, error) {
	return generateToken(userID, username, role, isAdmin, TokenTypeAccess, "", ttl)
}

// GenerateRefreshToken creates a long-lived refresh token for a user.
// Returns the signed token and its jti, which the caller must persist so
// logout can revoke it.
func GenerateRefreshToken(userID, username, role string, isAdmin bool, ttl time.Duration) (token, jti string, err error) {
	jti = ulid.Make().String()
	token, err = generateToken(userID, username, role, isAdmin, TokenTypeRefresh, jti, ttl)
	return token, jti, err
}

func generateToken(userID, username, role string, isAdmin bool, tokenType, jti string, ttl time.Duration) (string, error) {
	if len(jwtSecret) == 0 {
		return "", fmt.Errorf("JWT secret not initialized")
	}

	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		IsAdmin:   isAdmin,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateToken validates a JWT token of the expected type and returns the claims
func ValidateToken(tokenString, expectedType string) (*Claims, error) {
	if len(jwtSecret) == 0 {
		return nil, fmt.Errorf("JWT secret not initialized")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("unexpected token type %q", claims.TokenType)
	}

	return claims, nil
}
