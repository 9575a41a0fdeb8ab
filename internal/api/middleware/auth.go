package middleware

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
)

// AuthMiddleware rejects requests without a verifiable bearer token.
type AuthMiddleware struct {
	verifier auth.Verifier
}

// NewAuthMiddleware creates a new AuthMiddleware with the given verifier.
func NewAuthMiddleware(verifier auth.Verifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Authenticate verifies the Authorization header and puts the subject ID in
// the request context. Unverified requests get a 401 and never reach next.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subjectID, err := m.verifier.VerifyHeader(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, unauthorizedMessage(err), err)
			return
		}

		ctx := shared.WithUserID(r.Context(), subjectID)
		ctx = logger.WithLogger(ctx, logger.FromContextOrDefault(ctx).With("user_id", subjectID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "Authorization header required"
	case errors.Is(err, auth.ErrInvalidScheme):
		return "Invalid authorization format"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	default:
		return "Invalid token"
	}
}
