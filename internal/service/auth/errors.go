package auth

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskboard-api/internal/domain"
)

// Common authentication service errors
var (
	// ErrUnauthorized is returned by the verifier for every rejected request.
	// The underlying cause (missing header, bad token) is wrapped alongside it.
	ErrUnauthorized = fmt.Errorf("%w: missing or invalid credentials", domain.ErrUnauthorized)

	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrInvalidScheme indicates the Authorization header did not use the Bearer scheme
	ErrInvalidScheme = errors.New("authorization scheme must be Bearer")
)
