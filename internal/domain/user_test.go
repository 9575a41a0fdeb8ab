package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user, err := NewUser("  Alice ", "Alice@Example.com", "correct-horse")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestNewUserValidation(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{"empty name", "", "a@b.co", "password1", ErrEmptyUserName},
		{"empty email", "A", "", "password1", ErrEmptyEmail},
		{"no at sign", "A", "invalid", "password1", ErrInvalidEmail},
		{"no domain dot", "A", "a@localhost", "password1", ErrInvalidEmail},
		{"short password", "A", "a@b.co", "short", ErrPasswordTooShort},
		{"long password", "A", "a@b.co", strings.Repeat("x", 73), ErrPasswordTooLong},
		{"empty password", "A", "a@b.co", "", ErrEmptyHashedPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserValidateStoredUser(t *testing.T) {
	u := &User{ID: "id", Name: "A", Email: "a@b.co", HashedPassword: "$2a$hash"}
	assert.NoError(t, u.Validate())
}
