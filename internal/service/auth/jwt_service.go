package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT for the given subject.
	// Returns the token string or an error if token generation fails.
	GenerateToken(ctx context.Context, subjectID string) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns ErrInvalidToken, ErrExpiredToken or ErrTokenNotYetValid on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the verified contents of a token.
type Claims struct {
	// UserID is the subject the token was issued for.
	UserID string

	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
