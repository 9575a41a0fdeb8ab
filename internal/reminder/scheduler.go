// Package reminder periodically notifies assignees about their overdue tasks.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/notify"
)

// OverdueFinder lists overdue tasks. store.TaskStore implements it.
type OverdueFinder interface {
	FindAllOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error)
}

// Publisher sends an event to a subject's sessions. *notify.Hub implements it.
type Publisher interface {
	Publish(ctx context.Context, subjectID, event string, payload any) error
}

// Scheduler runs the overdue sweep on a cron schedule.
type Scheduler struct {
	finder    OverdueFinder
	publisher Publisher
	clock     func() time.Time
	logger    *slog.Logger

	cron   *rcron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time used to decide what is overdue.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.clock = now
	}
}

// NewScheduler creates a scheduler for the given cron spec. Standard 5-field
// expressions and descriptors such as "@every 15m" are accepted.
func NewScheduler(
	finder OverdueFinder,
	publisher Publisher,
	schedule string,
	logger *slog.Logger,
	opts ...Option,
) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reminder")

	s := &Scheduler{
		finder:    finder,
		publisher: publisher,
		clock:     time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	cronLogger := &slogCronLogger{logger: logger}
	s.cron = rcron.New(
		rcron.WithLogger(cronLogger),
		rcron.WithChain(rcron.Recover(cronLogger), rcron.SkipIfStillRunning(cronLogger)),
	)
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := s.cron.AddFunc(schedule, s.runScheduled); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) runScheduled() {
	if _, err := s.RunOnce(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("overdue sweep failed", "error", err)
	}
}

// RunOnce performs a single sweep and returns how many reminders were sent.
// A failed publish is logged and does not stop the sweep.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	now := s.clock().UTC()

	tasks, err := s.finder.FindAllOverdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to load overdue tasks: %w", err)
	}

	sent := 0
	for _, task := range tasks {
		if task.AssignedToID == nil {
			continue
		}
		if err := s.publisher.Publish(ctx, *task.AssignedToID, notify.EventOverdueReminder, task); err != nil {
			s.logger.Warn("failed to publish overdue reminder",
				"error", err,
				"task_id", task.ID)
			continue
		}
		sent++
	}

	s.logger.Info("overdue sweep completed",
		"overdue", len(tasks),
		"reminders_sent", sent)
	return sent, nil
}

// Start begins running the schedule in the background. It is a no-op if
// already started.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info("reminder scheduler started")
}

// Stop halts the schedule and waits for a running sweep to finish or ctx
// to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	s.cancel()
	if !started {
		return nil
	}

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("reminder scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// slogCronLogger adapts slog to the cron.Logger interface.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l *slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
