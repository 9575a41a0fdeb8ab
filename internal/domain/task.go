package domain

import (
	"time"
)

// MaxTitleLength is the maximum number of characters allowed in a task title.
const MaxTitleLength = 100

// Priority is the urgency of a task.
type Priority string

// Possible task priorities.
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// DefaultPriority is applied when a task is created without a priority.
const DefaultPriority = PriorityMedium

// Priorities lists every valid priority.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Valid reports whether p is one of the enumerated priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Status is the workflow state of a task. Transitions between any two
// statuses are allowed.
type Status string

// Possible task statuses.
const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusReview     Status = "Review"
	StatusCompleted  Status = "Completed"
)

// DefaultStatus is applied when a task is created without a status.
const DefaultStatus = StatusToDo

// Statuses lists every valid status.
var Statuses = []Status{StatusToDo, StatusInProgress, StatusReview, StatusCompleted}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusReview, StatusCompleted:
		return true
	default:
		return false
	}
}

// Task is a unit of work created by one subject and optionally assigned to another.
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	Priority     Priority   `json:"priority"`
	Status       Status     `json:"status"`
	CreatorID    string     `json:"creatorId"`
	AssignedToID *string    `json:"assignedToId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TaskInput is a validated, normalized payload for creating a task.
// Priority and Status are always set.
type TaskInput struct {
	Title        string
	Description  *string
	DueDate      *time.Time
	Priority     Priority
	Status       Status
	AssignedToID *string
}

// NewTask builds an unsaved task from validated input. The creator is always
// the verified subject, never a client-supplied value.
func NewTask(input *TaskInput, creatorID string) *Task {
	return &Task{
		Title:        input.Title,
		Description:  input.Description,
		DueDate:      input.DueDate,
		Priority:     input.Priority,
		Status:       input.Status,
		CreatorID:    creatorID,
		AssignedToID: input.AssignedToID,
	}
}

// TaskPatch is a validated partial update. Nil fields are left untouched.
// CreatorID is deliberately absent: it is immutable after creation.
type TaskPatch struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	Priority     *Priority
	Status       *Status
	AssignedToID *string
}

// IsEmpty reports whether the patch changes nothing.
func (p *TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Priority == nil && p.Status == nil && p.AssignedToID == nil
}

// Apply merges the patch into t and bumps UpdatedAt.
func (p *TaskPatch) Apply(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AssignedToID != nil {
		t.AssignedToID = p.AssignedToID
	}
	t.UpdatedAt = now
}

// IsOverdueFor reports whether the task is assigned to subjectID, has a due
// date strictly before now, and is not completed.
func (t *Task) IsOverdueFor(subjectID string, now time.Time) bool {
	if t.AssignedToID == nil || *t.AssignedToID != subjectID {
		return false
	}
	return t.IsOverdue(now)
}

// IsOverdue reports whether the task has passed its due date without being completed.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	return t.DueDate.Before(now)
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.AssignedToID != nil {
		a := *t.AssignedToID
		c.AssignedToID = &a
	}
	return &c
}

// UserTasks groups the three task views of a subject. The lists are read
// independently and are not a consistent snapshot.
type UserTasks struct {
	Assigned []*Task `json:"assigned"`
	Created  []*Task `json:"created"`
	Overdue  []*Task `json:"overdue"`
}
