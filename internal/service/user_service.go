package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// TokenIssuer issues access tokens for a subject. auth.JWTService implements it.
type TokenIssuer interface {
	GenerateToken(ctx context.Context, subjectID string) (string, error)
}

// PasswordHasher hashes and verifies passwords. *auth.BcryptHasher implements it.
type PasswordHasher interface {
	auth.PasswordHasher
	auth.PasswordVerifier
}

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	User  *domain.User
	Token string
}

// UserService provides account registration and login.
type UserService interface {
	// Register creates an account and returns it with a fresh token.
	// Returns ErrEmailInUse if the email is taken and a *domain.ValidationError
	// for malformed input.
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)

	// Login checks credentials and returns the account with a fresh token.
	// Returns ErrInvalidCredentials on any mismatch.
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	passwords PasswordHasher
	tokens    TokenIssuer
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	passwords PasswordHasher,
	tokens TokenIssuer,
	logger *slog.Logger,
) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore: userStore,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger.With("component", "user_service"),
	}
}

// userFieldErrors maps domain user errors to the request field they concern.
var userFieldErrors = []struct {
	err   error
	field string
}{
	{domain.ErrEmptyUserName, "name"},
	{domain.ErrEmptyEmail, "email"},
	{domain.ErrInvalidEmail, "email"},
	{domain.ErrPasswordTooShort, "password"},
	{domain.ErrPasswordTooLong, "password"},
}

func toValidationError(err error) error {
	for _, fe := range userFieldErrors {
		if errors.Is(err, fe.err) {
			return domain.NewValidationError(fe.field, fe.err.Error())
		}
	}
	return err
}

// Register implements UserService.
func (s *UserServiceImpl) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	user, err := domain.NewUser(name, email, password)
	if err != nil {
		s.logger.Debug("registration rejected", "error", err)
		return nil, toValidationError(err)
	}

	hashed, err := s.passwords.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, newServiceError("user", "register", "failed to hash password", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("registration with existing email", "user_id", user.ID)
			return nil, ErrEmailInUse
		}
		s.logger.Error("failed to store user", "error", err)
		return nil, newServiceError("user", "register", "failed to store user", err)
	}

	token, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err, "user_id", user.ID)
		return nil, newServiceError("user", "register", "failed to issue token", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// Login implements UserService.
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("login for unknown email")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to load user", "error", err)
		return nil, newServiceError("user", "login", "failed to load user", err)
	}

	if err := s.passwords.Compare(user.HashedPassword, password); err != nil {
		s.logger.Debug("login with wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err, "user_id", user.ID)
		return nil, newServiceError("user", "login", "failed to issue token", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}
