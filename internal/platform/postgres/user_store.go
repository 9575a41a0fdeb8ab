package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// PostgresUserStore implements store.UserStore on the users table.
type PostgresUserStore struct {
	db store.DBTX
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// NewPostgresUserStore creates a user store over db.
func NewPostgresUserStore(db store.DBTX) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx)

	if user.HashedPassword == "" {
		return store.NewStoreError("user", "create", "missing password hash", store.ErrInvalidEntity)
	}
	id, err := uuid.Parse(user.ID)
	if err != nil {
		return store.NewStoreError("user", "create", "invalid user id", store.ErrInvalidEntity)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id,
		user.Name,
		domain.NormalizeEmail(user.Email),
		user.HashedPassword,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("email already registered", "user_id", user.ID)
			return store.ErrEmailExists
		}
		log.Error("failed to insert user", "error", err, "user_id", user.ID)
		return store.NewStoreError("user", "create", "failed to insert user", MapError(err))
	}

	user.Password = ""
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, store.ErrUserNotFound
	}
	return s.get(ctx, `WHERE id = $1`, userID)
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.get(ctx, `WHERE email = $1`, domain.NormalizeEmail(email))
}

func (s *PostgresUserStore) get(ctx context.Context, where string, arg any) (*domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, hashed_password, created_at, updated_at FROM users `+where,
		arg,
	).Scan(&user.ID, &user.Name, &user.Email, &user.HashedPassword, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		mapped := mapUserError(err)
		if store.IsNotFoundError(mapped) {
			return nil, mapped
		}
		logger.FromContextOrDefault(ctx).Error("failed to fetch user", "error", err)
		return nil, store.NewStoreError("user", "get", "failed to fetch user", mapped)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}
