package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// TaskStore is a mutex-guarded map of tasks. Callers always receive copies.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	now   func() time.Time
}

var _ store.TaskStore = (*TaskStore)(nil)

// TaskStoreOption configures a TaskStore.
type TaskStoreOption func(*TaskStore)

// WithClock overrides the time source used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) TaskStoreOption {
	return func(s *TaskStore) {
		s.now = now
	}
}

// NewTaskStore creates an empty TaskStore.
func NewTaskStore(opts ...TaskStoreOption) *TaskStore {
	s := &TaskStore{
		tasks: make(map[string]*domain.Task),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create implements store.TaskStore.
func (s *TaskStore) Create(ctx context.Context, draft *domain.Task) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := draft.Clone()
	t.ID = uuid.NewString()
	now := s.now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()

	logger.FromContextOrDefault(ctx).Debug("task created",
		slog.String("task_id", t.ID))
	return t.Clone(), nil
}

// Update implements store.TaskStore.
func (s *TaskStore) Update(ctx context.Context, id string, patch *domain.TaskPatch) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}

	updated := t.Clone()
	patch.Apply(updated, s.now().UTC())
	// Apply shares the patch's pointers; store a detached copy.
	s.tasks[id] = updated.Clone()

	return updated, nil
}

// Delete implements store.TaskStore.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()
	return nil
}

// FindByAssignee implements store.TaskStore.
func (s *TaskStore) FindByAssignee(ctx context.Context, subjectID string) ([]*domain.Task, error) {
	return s.filter(ctx, func(t *domain.Task) bool {
		return t.AssignedToID != nil && *t.AssignedToID == subjectID
	})
}

// FindByCreator implements store.TaskStore.
func (s *TaskStore) FindByCreator(ctx context.Context, subjectID string) ([]*domain.Task, error) {
	return s.filter(ctx, func(t *domain.Task) bool {
		return t.CreatorID == subjectID
	})
}

// FindOverdue implements store.TaskStore.
func (s *TaskStore) FindOverdue(ctx context.Context, subjectID string, now time.Time) ([]*domain.Task, error) {
	return s.filter(ctx, func(t *domain.Task) bool {
		return t.IsOverdueFor(subjectID, now)
	})
}

// FindAllOverdue implements store.TaskStore.
func (s *TaskStore) FindAllOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	return s.filter(ctx, func(t *domain.Task) bool {
		return t.AssignedToID != nil && t.IsOverdue(now)
	})
}

func (s *TaskStore) filter(ctx context.Context, keep func(*domain.Task) bool) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]*domain.Task, 0)
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
