package api

import "github.com/phrazzld/taskboard-api/internal/domain"

// RegisterRequest defines the payload for the user registration endpoint.
// Length and format rules are enforced by the domain.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

func newAuthResponse(user *domain.User, token string) AuthResponse {
	return AuthResponse{
		User: UserResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
		Token: token,
	}
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
