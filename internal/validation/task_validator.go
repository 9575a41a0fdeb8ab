package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// Payload keys accepted for a task. Anything else, including creatorId, is ignored.
const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldDueDate      = "dueDate"
	FieldPriority     = "priority"
	FieldStatus       = "status"
	FieldAssignedToID = "assignedToId"
)

// fieldOrder fixes the order in which violations are reported.
var fieldOrder = []string{
	FieldTitle, FieldDescription, FieldDueDate, FieldPriority, FieldStatus, FieldAssignedToID,
}

const dueDateLayout = time.RFC3339

type commonTaskFields struct {
	Description  *string `json:"description"`
	DueDate      *string `json:"dueDate" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Priority     *string `json:"priority" validate:"omitempty,task_priority"`
	Status       *string `json:"status" validate:"omitempty,task_status"`
	AssignedToID *string `json:"assignedToId" validate:"omitempty,min=1"`
}

type createTaskFields struct {
	Title *string `json:"title" validate:"required,min=1,max=100"`
	commonTaskFields
}

type updateTaskFields struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=100"`
	commonTaskFields
}

// TaskValidator validates create and update payloads for tasks.
// It is safe for concurrent use.
type TaskValidator struct {
	validate *validator.Validate
}

// NewTaskValidator creates a TaskValidator with the task enum rules registered.
func NewTaskValidator() *TaskValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("task_priority", func(fl validator.FieldLevel) bool {
		return domain.Priority(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		return domain.Status(fl.Field().String()).Valid()
	})

	return &TaskValidator{validate: v}
}

// ValidateCreate checks a create payload. Title is required; priority and
// status default to Medium and To Do. On failure it returns a
// *domain.ValidationError listing every violated field.
func (tv *TaskValidator) ValidateCreate(input map[string]any) (*domain.TaskInput, error) {
	violations := newViolations()

	var fields createTaskFields
	fields.Title = extractString(input, FieldTitle, violations)
	extractCommon(input, &fields.commonTaskFields, violations)

	tv.check(&fields, violations)
	if err := violations.err(); err != nil {
		return nil, err
	}

	out := &domain.TaskInput{
		Title:        *fields.Title,
		Description:  fields.Description,
		DueDate:      parseDueDate(fields.DueDate),
		Priority:     domain.DefaultPriority,
		Status:       domain.DefaultStatus,
		AssignedToID: fields.AssignedToID,
	}
	if fields.Priority != nil {
		out.Priority = domain.Priority(*fields.Priority)
	}
	if fields.Status != nil {
		out.Status = domain.Status(*fields.Status)
	}
	return out, nil
}

// ValidateUpdate checks a partial update payload. Every field is optional
// but the same rules apply to any field that is present. No defaults are applied.
func (tv *TaskValidator) ValidateUpdate(input map[string]any) (*domain.TaskPatch, error) {
	violations := newViolations()

	var fields updateTaskFields
	fields.Title = extractString(input, FieldTitle, violations)
	extractCommon(input, &fields.commonTaskFields, violations)

	tv.check(&fields, violations)
	if err := violations.err(); err != nil {
		return nil, err
	}

	patch := &domain.TaskPatch{
		Title:        fields.Title,
		Description:  fields.Description,
		DueDate:      parseDueDate(fields.DueDate),
		AssignedToID: fields.AssignedToID,
	}
	if fields.Priority != nil {
		p := domain.Priority(*fields.Priority)
		patch.Priority = &p
	}
	if fields.Status != nil {
		s := domain.Status(*fields.Status)
		patch.Status = &s
	}
	return patch, nil
}

// check runs the struct rules and records each failure once per field.
func (tv *TaskValidator) check(fields any, violations *violationSet) {
	err := tv.validate.Struct(fields)
	if err == nil {
		return
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		violations.add("payload", "could not be validated")
		return
	}
	for _, fe := range verrs {
		violations.add(fe.Field(), messageFor(fe))
	}
}

func extractCommon(input map[string]any, fields *commonTaskFields, violations *violationSet) {
	fields.Description = extractString(input, FieldDescription, violations)
	fields.DueDate = extractString(input, FieldDueDate, violations)
	fields.Priority = extractString(input, FieldPriority, violations)
	fields.Status = extractString(input, FieldStatus, violations)
	fields.AssignedToID = extractString(input, FieldAssignedToID, violations)
}

// extractString returns nil when the key is absent. A present value that is
// not a string, including null, is recorded as a violation.
func extractString(input map[string]any, key string, violations *violationSet) *string {
	raw, ok := input[key]
	if !ok {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		violations.add(key, "must be a string")
		return nil
	}
	// PostgreSQL text columns cannot hold NUL.
	if strings.ContainsRune(s, 0) {
		violations.add(key, "must not contain NUL characters")
		return nil
	}
	return &s
}

func parseDueDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	// Already checked by the datetime rule.
	t, err := time.Parse(dueDateLayout, *s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		return "must be a valid ISO 8601 date-time"
	case "task_priority":
		return "must be one of " + joinPriorities()
	case "task_status":
		return "must be one of " + joinStatuses()
	default:
		return "is invalid"
	}
}

func joinPriorities() string {
	names := make([]string, 0, len(domain.Priorities))
	for _, p := range domain.Priorities {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func joinStatuses() string {
	names := make([]string, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// violationSet keeps the first message per field and reports them in fieldOrder.
type violationSet struct {
	messages map[string]string
}

func newViolations() *violationSet {
	return &violationSet{messages: make(map[string]string)}
}

func (v *violationSet) add(field, message string) {
	if _, seen := v.messages[field]; seen {
		return
	}
	v.messages[field] = message
}

func (v *violationSet) err() error {
	if len(v.messages) == 0 {
		return nil
	}

	verr := &domain.ValidationError{}
	for _, field := range fieldOrder {
		if msg, ok := v.messages[field]; ok {
			verr.Add(field, msg)
			delete(v.messages, field)
		}
	}
	// anything outside the known fields, e.g. "payload"
	for field, msg := range v.messages {
		verr.Add(field, msg)
	}
	return verr
}
