package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/notify"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// Notifier delivers real-time events. *notify.Hub implements it.
type Notifier interface {
	Publish(ctx context.Context, subjectID, event string, payload any) error
	Broadcast(ctx context.Context, event string, payload any) error
}

// TaskValidator checks raw task payloads. *validation.TaskValidator implements it.
type TaskValidator interface {
	ValidateCreate(input map[string]any) (*domain.TaskInput, error)
	ValidateUpdate(input map[string]any) (*domain.TaskPatch, error)
}

// TaskService orchestrates validate, persist and notify for every task mutation.
type TaskService interface {
	// CreateTask validates input and stores a task created by subjectID. Any
	// creatorId in input is ignored. The assignee, if any, is notified before
	// the taskUpdate broadcast.
	CreateTask(ctx context.Context, subjectID string, input map[string]any) (*domain.Task, error)

	// UpdateTask applies a partial update. Returns ErrTaskNotFound, with no
	// notification, when the task does not exist.
	UpdateTask(ctx context.Context, taskID string, input map[string]any) (*domain.Task, error)

	// DeleteTask removes a task and always broadcasts taskDeleted, whether or
	// not the task existed.
	DeleteTask(ctx context.Context, taskID string) error

	// GetUserTasks returns the tasks assigned to, created by, and overdue for subjectID.
	GetUserTasks(ctx context.Context, subjectID string) (*domain.UserTasks, error)
}

type taskServiceImpl struct {
	tasks     store.TaskStore
	validator TaskValidator
	notifier  Notifier
	clock     func() time.Time
	logger    *slog.Logger
}

// TaskServiceOption configures the task service.
type TaskServiceOption func(*taskServiceImpl)

// WithTaskClock overrides the clock used for the overdue query.
func WithTaskClock(now func() time.Time) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.clock = now
	}
}

// NewTaskService creates a TaskService. All dependencies are required.
func NewTaskService(
	tasks store.TaskStore,
	validator TaskValidator,
	notifier Notifier,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) (TaskService, error) {
	if tasks == nil {
		return nil, newServiceError("task", "create_service", "task store cannot be nil", errors.New("nil dependency"))
	}
	if validator == nil {
		return nil, newServiceError("task", "create_service", "validator cannot be nil", errors.New("nil dependency"))
	}
	if notifier == nil {
		return nil, newServiceError("task", "create_service", "notifier cannot be nil", errors.New("nil dependency"))
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		tasks:     tasks,
		validator: validator,
		notifier:  notifier,
		clock:     time.Now,
		logger:    logger.With("component", "task_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *taskServiceImpl) log(ctx context.Context) *slog.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l.With("component", "task_service")
	}
	return s.logger
}

// CreateTask implements TaskService.
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	subjectID string,
	input map[string]any,
) (*domain.Task, error) {
	log := s.log(ctx)

	taskInput, err := s.validator.ValidateCreate(input)
	if err != nil {
		log.Debug("task create rejected", "error", err, "user_id", subjectID)
		return nil, err
	}

	created, err := s.tasks.Create(ctx, domain.NewTask(taskInput, subjectID))
	if err != nil {
		log.Error("failed to store task", "error", err, "user_id", subjectID)
		return nil, newServiceError("task", "create_task", "failed to store task", err)
	}

	log.Info("task created", "task_id", created.ID, "user_id", subjectID)

	if created.AssignedToID != nil {
		assignee := *created.AssignedToID
		s.notify(ctx, notify.EventAssignmentNotification, func() error {
			return s.notifier.Publish(ctx, assignee, notify.EventAssignmentNotification, created)
		})
	}
	s.notify(ctx, notify.EventTaskUpdate, func() error {
		return s.notifier.Broadcast(ctx, notify.EventTaskUpdate, created)
	})

	return created, nil
}

// UpdateTask implements TaskService.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	taskID string,
	input map[string]any,
) (*domain.Task, error) {
	log := s.log(ctx)

	patch, err := s.validator.ValidateUpdate(input)
	if err != nil {
		log.Debug("task update rejected", "error", err, "task_id", taskID)
		return nil, err
	}

	updated, err := s.tasks.Update(ctx, taskID, patch)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			log.Debug("task not found for update", "task_id", taskID)
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		log.Error("failed to update task", "error", err, "task_id", taskID)
		return nil, newServiceError("task", "update_task", "failed to update task", err)
	}

	log.Info("task updated", "task_id", updated.ID)

	// only a patch that carries an assignee counts as a new assignment
	if patch.AssignedToID != nil {
		assignee := *patch.AssignedToID
		s.notify(ctx, notify.EventAssignmentNotification, func() error {
			return s.notifier.Publish(ctx, assignee, notify.EventAssignmentNotification, updated)
		})
	}
	s.notify(ctx, notify.EventTaskUpdate, func() error {
		return s.notifier.Broadcast(ctx, notify.EventTaskUpdate, updated)
	})

	return updated, nil
}

// DeleteTask implements TaskService.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID string) error {
	log := s.log(ctx)

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		log.Error("failed to delete task", "error", err, "task_id", taskID)
		return newServiceError("task", "delete_task", "failed to delete task", err)
	}

	log.Info("task deleted", "task_id", taskID)

	s.notify(ctx, notify.EventTaskDeleted, func() error {
		return s.notifier.Broadcast(ctx, notify.EventTaskDeleted, notify.TaskDeletedPayload{ID: taskID})
	})
	return nil
}

// GetUserTasks implements TaskService.
func (s *taskServiceImpl) GetUserTasks(ctx context.Context, subjectID string) (*domain.UserTasks, error) {
	log := s.log(ctx)

	assigned, err := s.tasks.FindByAssignee(ctx, subjectID)
	if err != nil {
		log.Error("failed to load assigned tasks", "error", err, "user_id", subjectID)
		return nil, newServiceError("task", "get_user_tasks", "failed to load assigned tasks", err)
	}

	created, err := s.tasks.FindByCreator(ctx, subjectID)
	if err != nil {
		log.Error("failed to load created tasks", "error", err, "user_id", subjectID)
		return nil, newServiceError("task", "get_user_tasks", "failed to load created tasks", err)
	}

	overdue, err := s.tasks.FindOverdue(ctx, subjectID, s.clock().UTC())
	if err != nil {
		log.Error("failed to load overdue tasks", "error", err, "user_id", subjectID)
		return nil, newServiceError("task", "get_user_tasks", "failed to load overdue tasks", err)
	}

	return &domain.UserTasks{
		Assigned: assigned,
		Created:  created,
		Overdue:  overdue,
	}, nil
}

// notify runs one delivery call. Errors and panics are logged and never
// reach the caller: the mutation already succeeded.
func (s *taskServiceImpl) notify(ctx context.Context, event string, deliver func() error) {
	log := s.log(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error("notifier panicked", "event", event, "panic", fmt.Sprint(r))
		}
	}()

	if err := deliver(); err != nil {
		log.Warn("notification failed", "event", event, "error", err)
	}
}
