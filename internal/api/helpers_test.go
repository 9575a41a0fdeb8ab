package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskboard-api/internal/api"
	"github.com/phrazzld/taskboard-api/internal/api/middleware"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/memory"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/validation"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// headerVerifier maps exact Authorization headers to subjects.
type headerVerifier map[string]string

func (v headerVerifier) VerifyHeader(_ context.Context, header string) (string, error) {
	if subject, ok := v[header]; ok {
		return subject, nil
	}
	return "", auth.ErrUnauthorized
}

type sentEvent struct {
	subject string // empty for broadcasts
	event   string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Publish(_ context.Context, subjectID, event string, _ any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{subject: subjectID, event: event})
	return nil
}

func (n *recordingNotifier) Broadcast(_ context.Context, event string, _ any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{event: event})
	return nil
}

func (n *recordingNotifier) sent() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEvent(nil), n.events...)
}

// fakeDeduper is an in-memory Deduper that can be told to fail.
type fakeDeduper struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (d *fakeDeduper) Add(_ context.Context, subjectID, key string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keys == nil {
		d.keys = make(map[string]bool)
	}
	k := subjectID + "/" + key
	if d.keys[k] {
		return false, nil
	}
	d.keys[k] = true
	return true, nil
}

func (d *fakeDeduper) Remove(_ context.Context, subjectID, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.keys, subjectID+"/"+key)
	return nil
}

var errDeduperDown = errors.New("redis: connection refused")

type testServer struct {
	router   http.Handler
	notifier *recordingNotifier
	tasks    *memory.TaskStore
}

func newTestServer(t *testing.T, deduper api.Deduper) *testServer {
	t.Helper()

	tasks := memory.NewTaskStore()
	notifier := &recordingNotifier{}
	taskSvc, err := service.NewTaskService(tasks, validation.NewTaskValidator(), notifier, discardLogger())
	require.NoError(t, err)

	jwtSvc, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)
	userSvc := service.NewUserService(memory.NewUserStore(), auth.NewBcryptHasher(4), jwtSvc, discardLogger())

	var opts []api.TaskHandlerOption
	if deduper != nil {
		opts = append(opts, api.WithDeduper(deduper))
	}
	taskHandler := api.NewTaskHandler(taskSvc, opts...)
	authHandler := api.NewAuthHandler(userSvc)
	authMw := middleware.NewAuthMiddleware(headerVerifier{
		"Bearer alice-token": "alice",
		"Bearer bob-token":   "bob",
	})

	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(discardLogger()))
	r.Get("/health", api.Health)
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Group(func(r chi.Router) {
		r.Use(authMw.Authenticate)
		r.Post("/tasks", taskHandler.CreateTask)
		r.Get("/tasks/me", taskHandler.GetMyTasks)
		r.Put("/tasks/{id}", taskHandler.UpdateTask)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)
	})

	return &testServer{router: r, notifier: notifier, tasks: tasks}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
