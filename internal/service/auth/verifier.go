package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/taskboard-api/internal/platform/logger"
)

// Verifier turns an Authorization header into a verified subject ID.
type Verifier interface {
	// VerifyHeader returns the subject ID of a valid "Bearer <token>" header.
	// Every failure wraps ErrUnauthorized.
	VerifyHeader(ctx context.Context, header string) (string, error)
}

// TokenValidator validates a bare token. JWTService satisfies it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// BearerVerifier is a Verifier for Bearer tokens. It has no side effects
// beyond debug logging.
type BearerVerifier struct {
	tokens TokenValidator
}

var _ Verifier = (*BearerVerifier)(nil)

// NewBearerVerifier creates a BearerVerifier backed by tokens.
func NewBearerVerifier(tokens TokenValidator) *BearerVerifier {
	return &BearerVerifier{tokens: tokens}
}

// VerifyHeader implements Verifier.
func (v *BearerVerifier) VerifyHeader(ctx context.Context, header string) (string, error) {
	log := logger.FromContextOrDefault(ctx)

	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		log.Debug("rejecting request without bearer token")
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, ErrMissingToken)
	}
	if !strings.EqualFold(scheme, "Bearer") {
		log.Debug("rejecting request with unsupported auth scheme", "scheme", scheme)
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, ErrInvalidScheme)
	}

	claims, err := v.tokens.ValidateToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return claims.UserID, nil
}
