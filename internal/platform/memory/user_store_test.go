package memory

import (
	"context"
	"testing"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := domain.NewUser("Test User", email, "password123")
	require.NoError(t, err)
	u.HashedPassword = "$2a$10$hash"
	u.Password = ""
	return u
}

func TestUserStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	u := newStoredUser(t, "alice@example.com")

	require.NoError(t, s.Create(ctx, u))

	byID, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)
	assert.Equal(t, "$2a$10$hash", byID.HashedPassword)

	byEmail, err := s.GetByEmail(ctx, "ALICE@Example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
}

func TestUserStore_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()

	require.NoError(t, s.Create(ctx, newStoredUser(t, "alice@example.com")))

	dup := newStoredUser(t, "alice@example.com")
	dup.Email = "Alice@Example.COM"
	err := s.Create(ctx, dup)

	assert.ErrorIs(t, err, store.ErrEmailExists)
	assert.True(t, store.IsDuplicateError(err))
}

func TestUserStore_RequiresHash(t *testing.T) {
	u := newStoredUser(t, "bob@example.com")
	u.HashedPassword = ""

	err := NewUserStore().Create(context.Background(), u)

	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestUserStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()

	_, err := s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = s.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}
