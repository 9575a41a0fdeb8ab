package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/store"
)

func newPgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "users",
		ColumnName:     "email",
		ConstraintName: constraint,
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset")

	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantNil bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "no rows", err: sql.ErrNoRows, wantIs: store.ErrNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", sql.ErrNoRows), wantIs: store.ErrNotFound},
		{name: "email unique violation", err: newPgError("23505", "users_email_key"), wantIs: store.ErrEmailExists},
		{name: "other unique violation", err: newPgError("23505", "tasks_pkey"), wantIs: store.ErrDuplicate},
		{name: "check violation", err: newPgError("23514", "tasks_status_check"), wantIs: store.ErrInvalidEntity},
		{name: "not null violation", err: newPgError("23502", ""), wantIs: store.ErrInvalidEntity},
		{name: "foreign key violation", err: newPgError("23503", "fk"), wantIs: store.ErrInvalidEntity},
		{name: "invalid text representation", err: newPgError("22P02", ""), wantIs: store.ErrInvalidEntity},
		{name: "nul byte in text", err: newPgError("22021", ""), wantIs: store.ErrInvalidEntity},
		{name: "unmapped", err: plain, wantIs: plain},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := postgres.MapError(tt.err)

			if tt.wantNil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.wantIs)
		})
	}
}

func TestMapError_OtherUniqueIsNotEmailExists(t *testing.T) {
	got := postgres.MapError(newPgError("23505", "tasks_pkey"))

	assert.False(t, errors.Is(got, store.ErrEmailExists))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, postgres.IsUniqueViolation(newPgError("23505", "users_email_key")))
	assert.True(t, postgres.IsUniqueViolation(fmt.Errorf("insert: %w", newPgError("23505", ""))))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503", "")))
	assert.False(t, postgres.IsUniqueViolation(errors.New("boom")))
	assert.False(t, postgres.IsUniqueViolation(nil))
}
