//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/store"
)

var testDB *sql.DB

// TestMain migrates the database named by DATABASE_URL once for the package.
func TestMain(m *testing.M) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		fmt.Println("DATABASE_URL not set, skipping postgres integration tests")
		os.Exit(0)
	}

	var err error
	testDB, err = sql.Open("pgx", dbURL)
	if err != nil {
		fmt.Printf("Failed to open database connection: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := postgres.Migrate(ctx, testDB, postgres.MigrateUp, nil); err != nil {
		cancel()
		fmt.Printf("Failed to migrate: %v\n", err)
		os.Exit(1)
	}
	cancel()

	code := m.Run()
	_ = testDB.Close()
	os.Exit(code)
}

// withTx runs fn inside a transaction that is always rolled back.
func withTx(t *testing.T, fn func(tx *sql.Tx)) {
	t.Helper()
	tx, err := testDB.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()
	fn(tx)
}

func strPtr(s string) *string { return &s }

func TestPostgresTaskStore_Lifecycle(t *testing.T) {
	withTx(t, func(tx *sql.Tx) {
		ctx := context.Background()
		tasks := postgres.NewPostgresTaskStore(tx)
		creator := uuid.NewString()
		assignee := uuid.NewString()
		due := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)

		created, err := tasks.Create(ctx, &domain.Task{
			Title:        "Write report",
			Description:  strPtr("quarterly"),
			DueDate:      &due,
			Priority:     domain.PriorityHigh,
			Status:       domain.StatusToDo,
			CreatorID:    creator,
			AssignedToID: &assignee,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, created.CreatedAt, created.UpdatedAt)
		require.NotNil(t, created.DueDate)
		assert.True(t, due.Equal(*created.DueDate))

		byCreator, err := tasks.FindByCreator(ctx, creator)
		require.NoError(t, err)
		require.Len(t, byCreator, 1)

		overdue, err := tasks.FindOverdue(ctx, assignee, time.Now())
		require.NoError(t, err)
		require.Len(t, overdue, 1)

		status := domain.StatusCompleted
		updated, err := tasks.Update(ctx, created.ID, &domain.TaskPatch{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, updated.Status)
		assert.Equal(t, "Write report", updated.Title)

		overdue, err = tasks.FindOverdue(ctx, assignee, time.Now())
		require.NoError(t, err)
		assert.Empty(t, overdue)
		assert.NotNil(t, overdue)

		require.NoError(t, tasks.Delete(ctx, created.ID))
		require.NoError(t, tasks.Delete(ctx, created.ID))

		_, err = tasks.Update(ctx, created.ID, &domain.TaskPatch{})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestPostgresTaskStore_MalformedIDs(t *testing.T) {
	withTx(t, func(tx *sql.Tx) {
		tasks := postgres.NewPostgresTaskStore(tx)

		_, err := tasks.Update(context.Background(), "not-a-uuid", &domain.TaskPatch{})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		assert.NoError(t, tasks.Delete(context.Background(), "not-a-uuid"))
	})
}

func TestPostgresUserStore(t *testing.T) {
	withTx(t, func(tx *sql.Tx) {
		ctx := context.Background()
		users := postgres.NewPostgresUserStore(tx)

		user, err := domain.NewUser("Ada", "Ada@Example.com", "correct horse")
		require.NoError(t, err)
		user.HashedPassword = "$2a$10$hash"

		require.NoError(t, users.Create(ctx, user))

		byEmail, err := users.GetByEmail(ctx, "ADA@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, "ada@example.com", byEmail.Email)

		byID, err := users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "$2a$10$hash", byID.HashedPassword)

		dup, err := domain.NewUser("Other", "ada@example.com", "another pass")
		require.NoError(t, err)
		dup.HashedPassword = "$2a$10$other"
		assert.ErrorIs(t, users.Create(ctx, dup), store.ErrEmailExists)

		_, err = users.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, store.ErrUserNotFound)

		_, err = users.GetByID(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}
