package store

import (
	"context"
	"time"

	"github.com/phrazzld/taskboard-api/internal/domain"
)

// TaskStore defines the interface for durable task persistence.
//
// Every method is atomic for the single record it touches. List methods return
// tasks ordered by CreatedAt descending and never return a nil slice.
type TaskStore interface {
	// Create persists a draft task, assigning its ID, CreatedAt and UpdatedAt.
	// The draft is not modified; the stored task is returned.
	Create(ctx context.Context, draft *domain.Task) (*domain.Task, error)

	// Update applies the patch to the task with the given ID and returns the
	// result. Returns ErrTaskNotFound if no such task exists, including when
	// the ID could never have been issued by this store.
	Update(ctx context.Context, id string, patch *domain.TaskPatch) (*domain.Task, error)

	// Delete removes the task. Deleting a missing task is not an error.
	Delete(ctx context.Context, id string) error

	// FindByAssignee returns the tasks assigned to subjectID.
	FindByAssignee(ctx context.Context, subjectID string) ([]*domain.Task, error)

	// FindByCreator returns the tasks created by subjectID.
	FindByCreator(ctx context.Context, subjectID string) ([]*domain.Task, error)

	// FindOverdue returns the tasks assigned to subjectID whose due date is
	// before now and whose status is not Completed.
	FindOverdue(ctx context.Context, subjectID string, now time.Time) ([]*domain.Task, error)

	// FindAllOverdue returns every assigned task that is overdue at now.
	FindAllOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error)
}
