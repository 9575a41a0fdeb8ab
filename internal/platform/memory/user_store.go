package memory

import (
	"context"
	"sync"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// UserStore keeps users in memory, indexed by ID and normalized email.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

// Create implements store.UserStore.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user.HashedPassword == "" {
		return store.NewStoreError("user", "create", "missing password hash", store.ErrInvalidEntity)
	}

	email := domain.NormalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return store.ErrEmailExists
	}

	stored := *user
	stored.Email = email
	stored.Password = ""
	s.byID[stored.ID] = &stored
	s.byEmail[email] = stored.ID
	return nil
}

// GetByID implements store.UserStore.
func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

// GetByEmail implements store.UserStore.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	out := *s.byID[id]
	return &out, nil
}
