package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireValidationError(t *testing.T, err error) *domain.ValidationError {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected *domain.ValidationError, got %T", err)
	return verr
}

func TestValidateCreate_AppliesDefaults(t *testing.T) {
	v := NewTaskValidator()

	input, err := v.ValidateCreate(map[string]any{"title": "Ship report"})
	require.NoError(t, err)

	assert.Equal(t, "Ship report", input.Title)
	assert.Equal(t, domain.PriorityMedium, input.Priority)
	assert.Equal(t, domain.StatusToDo, input.Status)
	assert.Nil(t, input.Description)
	assert.Nil(t, input.DueDate)
	assert.Nil(t, input.AssignedToID)
}

func TestValidateCreate_AllFields(t *testing.T) {
	v := NewTaskValidator()

	input, err := v.ValidateCreate(map[string]any{
		"title":        "Ship report",
		"description":  "quarterly numbers",
		"dueDate":      "2025-03-01T10:00:00+02:00",
		"priority":     "Urgent",
		"status":       "In Progress",
		"assignedToId": "bob",
	})
	require.NoError(t, err)

	require.NotNil(t, input.Description)
	assert.Equal(t, "quarterly numbers", *input.Description)
	require.NotNil(t, input.DueDate)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), *input.DueDate)
	assert.Equal(t, time.UTC, input.DueDate.Location())
	assert.Equal(t, domain.PriorityUrgent, input.Priority)
	assert.Equal(t, domain.StatusInProgress, input.Status)
	require.NotNil(t, input.AssignedToID)
	assert.Equal(t, "bob", *input.AssignedToID)
}

func TestValidateCreate_FractionalSeconds(t *testing.T) {
	v := NewTaskValidator()

	input, err := v.ValidateCreate(map[string]any{
		"title":   "x",
		"dueDate": "2025-03-01T10:00:00.123Z",
	})
	require.NoError(t, err)
	require.NotNil(t, input.DueDate)
	assert.Equal(t, 123*time.Millisecond, time.Duration(input.DueDate.Nanosecond()))
}

func TestValidateCreate_IgnoresCreatorID(t *testing.T) {
	v := NewTaskValidator()

	input, err := v.ValidateCreate(map[string]any{
		"title":     "x",
		"creatorId": "mallory",
		"id":        "forged",
	})
	require.NoError(t, err)
	assert.Equal(t, "x", input.Title)
}

func TestValidateCreate_TitleTooLong(t *testing.T) {
	v := NewTaskValidator()

	_, err := v.ValidateCreate(map[string]any{"title": strings.Repeat("x", 101)})

	verr := requireValidationError(t, err)
	assert.Equal(t, []string{"title"}, verr.FieldNames())
	assert.Equal(t, "must be at most 100 characters", verr.Fields[0].Message)
}

func TestValidateCreate_TitleCountsCharactersNotBytes(t *testing.T) {
	v := NewTaskValidator()

	_, err := v.ValidateCreate(map[string]any{"title": strings.Repeat("é", 100)})
	assert.NoError(t, err)
}

func TestValidateCreate_MissingTitle(t *testing.T) {
	v := NewTaskValidator()

	_, err := v.ValidateCreate(map[string]any{"description": "no title"})

	verr := requireValidationError(t, err)
	assert.Equal(t, []domain.FieldError{{Field: "title", Message: "is required"}}, verr.Fields)
}

func TestValidateCreate_NilInput(t *testing.T) {
	v := NewTaskValidator()

	_, err := v.ValidateCreate(nil)

	verr := requireValidationError(t, err)
	assert.Equal(t, []string{"title"}, verr.FieldNames())
}

func TestValidateCreate_EmptyTitle(t *testing.T) {
	v := NewTaskValidator()

	_, err := v.ValidateCreate(map[string]any{"title": ""})

	verr := requireValidationError(t, err)
	assert.Equal(t, []string{"title"}, verr.FieldNames())
}

func TestValidateCreate_EnumeratesEveryViolation(t *testing.T) {
	v := NewTaskValidator()

	_, err := v.ValidateCreate(map[string]any{
		"title":        strings.Repeat("x", 101),
		"description":  42,
		"dueDate":      "next tuesday",
		"priority":     "Critical",
		"status":       "Done",
		"assignedToId": "",
	})

	verr := requireValidationError(t, err)
	assert.Equal(t,
		[]string{"title", "description", "dueDate", "priority", "status", "assignedToId"},
		verr.FieldNames())
}

func TestValidateCreate_TypeErrors(t *testing.T) {
	v := NewTaskValidator()

	_, err := v.ValidateCreate(map[string]any{
		"title":    123.0,
		"priority": nil,
	})

	verr := requireValidationError(t, err)
	assert.Equal(t, []domain.FieldError{
		{Field: "title", Message: "must be a string"},
		{Field: "priority", Message: "must be a string"},
	}, verr.Fields)
}

func TestValidateCreate_RejectsNULCharacters(t *testing.T) {
	v := NewTaskValidator()

	_, err := v.ValidateCreate(map[string]any{
		"title":       "bad\u0000title",
		"description": "also\x00bad",
	})

	verr := requireValidationError(t, err)
	assert.Equal(t, []domain.FieldError{
		{Field: "title", Message: "must not contain NUL characters"},
		{Field: "description", Message: "must not contain NUL characters"},
	}, verr.Fields)
}

func TestValidateUpdate_RejectsNULCharacters(t *testing.T) {
	v := NewTaskValidator()

	_, err := v.ValidateUpdate(map[string]any{"assignedToId": "bob\x00"})

	verr := requireValidationError(t, err)
	assert.Equal(t, []string{"assignedToId"}, verr.FieldNames())
}

func TestValidateUpdate_AllOptional(t *testing.T) {
	v := NewTaskValidator()

	patch, err := v.ValidateUpdate(map[string]any{})
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty())
}

func TestValidateUpdate_NoDefaults(t *testing.T) {
	v := NewTaskValidator()

	patch, err := v.ValidateUpdate(map[string]any{"status": "Completed"})
	require.NoError(t, err)

	require.NotNil(t, patch.Status)
	assert.Equal(t, domain.StatusCompleted, *patch.Status)
	assert.Nil(t, patch.Priority, "update must not default priority")
	assert.Nil(t, patch.Title)
	assert.Nil(t, patch.AssignedToID)
}

func TestValidateUpdate_TitleTooLong(t *testing.T) {
	v := NewTaskValidator()

	_, err := v.ValidateUpdate(map[string]any{"title": strings.Repeat("x", 101)})

	verr := requireValidationError(t, err)
	assert.Equal(t, []string{"title"}, verr.FieldNames())
}

func TestValidateUpdate_InvalidEnums(t *testing.T) {
	v := NewTaskValidator()

	_, err := v.ValidateUpdate(map[string]any{"priority": "medium", "status": "todo"})

	verr := requireValidationError(t, err)
	assert.Equal(t, []string{"priority", "status"}, verr.FieldNames())
	assert.Contains(t, verr.Fields[0].Message, "Low, Medium, High, Urgent")
	assert.Contains(t, verr.Fields[1].Message, "To Do, In Progress, Review, Completed")
}

func TestValidateUpdate_Assignment(t *testing.T) {
	v := NewTaskValidator()

	patch, err := v.ValidateUpdate(map[string]any{"assignedToId": "carol", "dueDate": "2030-01-01T00:00:00Z"})
	require.NoError(t, err)

	require.NotNil(t, patch.AssignedToID)
	assert.Equal(t, "carol", *patch.AssignedToID)
	require.NotNil(t, patch.DueDate)
	assert.Equal(t, 2030, patch.DueDate.Year())
}
