package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const taskColumns = `id, title, description, due_date, priority, status,
	creator_id, assigned_to_id, created_at, updated_at`

// PostgresTaskStore implements store.TaskStore on the tasks table.
type PostgresTaskStore struct {
	db  store.DBTX
	now func() time.Time
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a task store over db, which may be a pool or a
// transaction.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{
		db:  db,
		now: time.Now,
	}
}

// WithDB returns a copy of the store bound to a different connection,
// typically a transaction.
func (s *PostgresTaskStore) WithDB(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{db: db, now: s.now}
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, draft *domain.Task) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx)
	now := s.now().UTC()

	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + taskColumns

	row := s.db.QueryRowContext(ctx, query,
		uuid.New(),
		draft.Title,
		draft.Description,
		draft.DueDate,
		string(draft.Priority),
		string(draft.Status),
		draft.CreatorID,
		draft.AssignedToID,
		now,
	)

	task, err := scanTask(row)
	if err != nil {
		log.Error("failed to insert task",
			"error", err,
			"creator_id", draft.CreatorID)
		return nil, store.NewStoreError("task", "create", "failed to insert task", MapError(err))
	}

	log.Debug("task created", "task_id", task.ID)
	return task, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	id string,
	patch *domain.TaskPatch,
) (*domain.Task, error) {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return nil, store.ErrTaskNotFound
	}

	query, args := buildTaskUpdate(taskID, patch, s.now().UTC())
	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		mapped := updateError(err)
		if !store.IsNotFoundError(mapped) {
			logger.FromContextOrDefault(ctx).Error("failed to update task",
				"error", err,
				"task_id", id)
		}
		return nil, mapped
	}
	return task, nil
}

// updateError maps a failed UPDATE ... RETURNING. A missing row stays a plain
// not-found; anything else carries both ErrUpdateFailed and the mapped cause.
func updateError(err error) error {
	mapped := mapTaskError(err)
	if store.IsNotFoundError(mapped) {
		return mapped
	}
	return store.NewStoreError("task", "update", "failed to update task",
		fmt.Errorf("%w: %w", store.ErrUpdateFailed, mapped))
}

// buildTaskUpdate renders an UPDATE touching only the fields set in patch.
// updated_at is always bumped.
func buildTaskUpdate(id uuid.UUID, patch *domain.TaskPatch, now time.Time) (string, []any) {
	sets := make([]string, 0, 7)
	args := make([]any, 0, 8)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch != nil {
		if patch.Title != nil {
			add("title", *patch.Title)
		}
		if patch.Description != nil {
			add("description", *patch.Description)
		}
		if patch.DueDate != nil {
			add("due_date", *patch.DueDate)
		}
		if patch.Priority != nil {
			add("priority", string(*patch.Priority))
		}
		if patch.Status != nil {
			add("status", string(*patch.Status))
		}
		if patch.AssignedToID != nil {
			add("assigned_to_id", *patch.AssignedToID)
		}
	}
	add("updated_at", now)

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), taskColumns)
	return query, args
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id string) error {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, taskID); err != nil {
		logger.FromContextOrDefault(ctx).Error("failed to delete task",
			"error", err,
			"task_id", id)
		return store.NewStoreError("task", "delete", "failed to delete task", store.ErrDeleteFailed)
	}
	return nil
}

// FindByAssignee implements store.TaskStore.FindByAssignee
func (s *PostgresTaskStore) FindByAssignee(ctx context.Context, subjectID string) ([]*domain.Task, error) {
	return s.query(ctx, "find_by_assignee",
		`SELECT `+taskColumns+` FROM tasks
		WHERE assigned_to_id = $1
		ORDER BY created_at DESC, id DESC`,
		subjectID)
}

// FindByCreator implements store.TaskStore.FindByCreator
func (s *PostgresTaskStore) FindByCreator(ctx context.Context, subjectID string) ([]*domain.Task, error) {
	return s.query(ctx, "find_by_creator",
		`SELECT `+taskColumns+` FROM tasks
		WHERE creator_id = $1
		ORDER BY created_at DESC, id DESC`,
		subjectID)
}

// FindOverdue implements store.TaskStore.FindOverdue
func (s *PostgresTaskStore) FindOverdue(
	ctx context.Context,
	subjectID string,
	now time.Time,
) ([]*domain.Task, error) {
	return s.query(ctx, "find_overdue",
		`SELECT `+taskColumns+` FROM tasks
		WHERE assigned_to_id = $1 AND due_date < $2 AND status <> $3
		ORDER BY created_at DESC, id DESC`,
		subjectID, now.UTC(), string(domain.StatusCompleted))
}

// FindAllOverdue implements store.TaskStore.FindAllOverdue
func (s *PostgresTaskStore) FindAllOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	return s.query(ctx, "find_all_overdue",
		`SELECT `+taskColumns+` FROM tasks
		WHERE assigned_to_id IS NOT NULL AND due_date < $1 AND status <> $2
		ORDER BY created_at DESC, id DESC`,
		now.UTC(), string(domain.StatusCompleted))
}

func (s *PostgresTaskStore) query(
	ctx context.Context,
	operation string,
	query string,
	args ...any,
) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx).Error("failed to query tasks",
			"error", err,
			"operation", operation)
		return nil, store.NewStoreError("task", operation, "failed to query tasks", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", operation, "failed to scan task", MapError(err))
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", operation, "failed to iterate tasks", MapError(err))
	}
	return tasks, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		description sql.NullString
		dueDate     sql.NullTime
		priority    string
		status      string
		assignedTo  sql.NullString
	)

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&dueDate,
		&priority,
		&status,
		&task.CreatorID,
		&assignedTo,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	task.Status = domain.Status(status)
	if description.Valid {
		task.Description = &description.String
	}
	if dueDate.Valid {
		due := dueDate.Time.UTC()
		task.DueDate = &due
	}
	if assignedTo.Valid {
		task.AssignedToID = &assignedTo.String
	}
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}
