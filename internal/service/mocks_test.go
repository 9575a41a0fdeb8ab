package service

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockTaskStore mocks the store.TaskStore interface
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Create(ctx context.Context, draft *domain.Task) (*domain.Task, error) {
	args := m.Called(ctx, draft)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *MockTaskStore) Update(ctx context.Context, id string, patch *domain.TaskPatch) (*domain.Task, error) {
	args := m.Called(ctx, id, patch)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *MockTaskStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskStore) FindByAssignee(ctx context.Context, subjectID string) ([]*domain.Task, error) {
	args := m.Called(ctx, subjectID)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskStore) FindByCreator(ctx context.Context, subjectID string) ([]*domain.Task, error) {
	args := m.Called(ctx, subjectID)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskStore) FindOverdue(ctx context.Context, subjectID string, now time.Time) ([]*domain.Task, error) {
	args := m.Called(ctx, subjectID, now)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskStore) FindAllOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	args := m.Called(ctx, now)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

// MockUserStore mocks the store.UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

// MockTokenIssuer mocks TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(ctx context.Context, subjectID string) (string, error) {
	args := m.Called(ctx, subjectID)
	return args.String(0), args.Error(1)
}

// notification is one call observed by recordingNotifier.
type notification struct {
	Kind    string // "publish" or "broadcast"
	Subject string
	Event   string
	Payload any
}

// recordingNotifier records every call in order. It can be told to fail or panic.
type recordingNotifier struct {
	mu       sync.Mutex
	calls    []notification
	err      error
	panicMsg string
}

func (r *recordingNotifier) Publish(_ context.Context, subjectID, event string, payload any) error {
	r.record(notification{Kind: "publish", Subject: subjectID, Event: event, Payload: payload})
	return r.outcome()
}

func (r *recordingNotifier) Broadcast(_ context.Context, event string, payload any) error {
	r.record(notification{Kind: "broadcast", Event: event, Payload: payload})
	return r.outcome()
}

func (r *recordingNotifier) record(n notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, n)
}

func (r *recordingNotifier) outcome() error {
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	return r.err
}

func (r *recordingNotifier) Calls() []notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification(nil), r.calls...)
}
