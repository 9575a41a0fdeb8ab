package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// IdempotencyHeader names the optional request header that makes task
// creation safe to retry.
const IdempotencyHeader = "Idempotency-Key"

// maxIdempotencyKeyLength bounds client-supplied keys.
const maxIdempotencyKeyLength = 255

// Deduper remembers idempotency keys per subject.
type Deduper interface {
	// Add records key and reports whether it was new.
	Add(ctx context.Context, subjectID, key string) (bool, error)
	// Remove forgets key so the request can be retried.
	Remove(ctx context.Context, subjectID, key string) error
}

// TaskHandler serves the task endpoints. Every route requires an
// authenticated subject in the request context.
type TaskHandler struct {
	tasks   service.TaskService
	deduper Deduper
}

// TaskHandlerOption configures a TaskHandler.
type TaskHandlerOption func(*TaskHandler)

// WithDeduper enables Idempotency-Key handling on task creation.
func WithDeduper(d Deduper) TaskHandlerOption {
	return func(h *TaskHandler) {
		h.deduper = d
	}
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, opts ...TaskHandlerOption) *TaskHandler {
	h := &TaskHandler{tasks: tasks}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// subject returns the verified subject or writes a 401.
func subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	subjectID, ok := shared.GetUserID(r.Context())
	if !ok {
		logger.FromContextOrDefault(r.Context()).Warn("subject missing from request context")
		HandleAPIError(w, r, domain.ErrUnauthorized)
		return "", false
	}
	return subjectID, true
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subject(w, r)
	if !ok {
		return
	}

	input, err := shared.DecodeJSONObject(w, r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	key := r.Header.Get(IdempotencyHeader)
	if key != "" && h.deduper != nil {
		if len(key) > maxIdempotencyKeyLength {
			HandleAPIError(w, r, domain.NewValidationError(IdempotencyHeader, "must be at most 255 characters"))
			return
		}
		if !h.claimKey(r, subjectID, key) {
			HandleAPIError(w, r, ErrDuplicateRequest)
			return
		}
	}

	task, err := h.tasks.CreateTask(r.Context(), subjectID, input)
	if err != nil {
		if key != "" && h.deduper != nil {
			h.releaseKey(r, subjectID, key)
		}
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// claimKey reports whether the request may proceed. A deduper failure lets
// the request through.
func (h *TaskHandler) claimKey(r *http.Request, subjectID, key string) bool {
	added, err := h.deduper.Add(r.Context(), subjectID, key)
	if err != nil {
		logger.FromContextOrDefault(r.Context()).Warn("idempotency check unavailable, proceeding",
			"error", err)
		return true
	}
	return added
}

func (h *TaskHandler) releaseKey(r *http.Request, subjectID, key string) {
	if err := h.deduper.Remove(r.Context(), subjectID, key); err != nil {
		logger.FromContextOrDefault(r.Context()).Warn("failed to release idempotency key",
			"error", err)
	}
}

// GetMyTasks handles GET /tasks/me.
func (h *TaskHandler) GetMyTasks(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subject(w, r)
	if !ok {
		return
	}

	tasks, err := h.tasks.GetUserTasks(r.Context(), subjectID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// UpdateTask handles PUT /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := subject(w, r); !ok {
		return
	}

	input, err := shared.DecodeJSONObject(w, r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{id}. It answers 204 whether or not the
// task existed.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := subject(w, r); !ok {
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
