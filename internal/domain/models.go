package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

const (
	MinDifficulty     = 1
	MaxDifficulty     = 5
	DefaultDifficulty = 1
)

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Difficulty  int        `json:"difficulty"`
	DueTime     *time.Time `json:"dueTime"`
	Categories  []string   `json:"categories"`
	Steps       []string   `json:"steps"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Categories []string  `json:"categories"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TaskDraft is the payload for creating a task. Zero Priority, Status and
// Difficulty take their defaults in Normalize.
type TaskDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Difficulty  int        `json:"difficulty"`
	DueTime     *time.Time `json:"dueTime"`
	Categories  []string   `json:"categories"`
	Steps       []string   `json:"steps"`
}

func (d *TaskDraft) Normalize() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if d.Title == "" {
		return invalid("title is required")
	}

	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if !d.Priority.Valid() {
		return invalid("invalid priority")
	}

	if d.Status == "" {
		d.Status = StatusTodo
	}
	if !d.Status.Valid() {
		return invalid("invalid status")
	}

	if d.Difficulty == 0 {
		d.Difficulty = DefaultDifficulty
	}
	if d.Difficulty < MinDifficulty || d.Difficulty > MaxDifficulty {
		return invalid("difficulty must be between 1 and 5")
	}

	d.Categories = CleanCategories(d.Categories)
	d.Steps = CleanSteps(d.Steps)
	return nil
}

type NoteDraft struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Categories []string `json:"categories"`
}

func (d *NoteDraft) Normalize() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Content = strings.TrimSpace(d.Content)
	if d.Title == "" {
		return invalid("title is required")
	}
	d.Categories = CleanCategories(d.Categories)
	return nil
}

// TaskPatch is a partial update. ClearDueTime removes the due time and wins
// over DueTime.
type TaskPatch struct {
	Title        *string
	Description  *string
	Priority     *Priority
	Status       *Status
	Difficulty   *int
	DueTime      *time.Time
	ClearDueTime bool
	Categories   *[]string
	Steps        *[]string
}

func (p *TaskPatch) Validate() error {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return invalid("title cannot be empty")
		}
		p.Title = &t
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return invalid("invalid priority")
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("invalid status")
	}
	if p.Difficulty != nil && (*p.Difficulty < MinDifficulty || *p.Difficulty > MaxDifficulty) {
		return invalid("difficulty must be between 1 and 5")
	}
	if p.Categories != nil {
		c := CleanCategories(*p.Categories)
		p.Categories = &c
	}
	if p.Steps != nil {
		s := CleanSteps(*p.Steps)
		p.Steps = &s
	}
	return nil
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Status == nil &&
		p.Difficulty == nil && p.DueTime == nil && !p.ClearDueTime && p.Categories == nil && p.Steps == nil
}

// Apply writes the patch onto t. It does not touch UpdatedAt.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Difficulty != nil {
		t.Difficulty = *p.Difficulty
	}
	if p.ClearDueTime {
		t.DueTime = nil
	} else if p.DueTime != nil {
		due := *p.DueTime
		t.DueTime = &due
	}
	if p.Categories != nil {
		t.Categories = append([]string{}, *p.Categories...)
	}
	if p.Steps != nil {
		t.Steps = append([]string{}, *p.Steps...)
	}
}

type NotePatch struct {
	Title      *string
	Content    *string
	Categories *[]string
}

func (p *NotePatch) Validate() error {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return invalid("title cannot be empty")
		}
		p.Title = &t
	}
	if p.Categories != nil {
		c := CleanCategories(*p.Categories)
		p.Categories = &c
	}
	return nil
}

func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Categories == nil
}

func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = strings.TrimSpace(*p.Content)
	}
	if p.Categories != nil {
		n.Categories = append([]string{}, *p.Categories...)
	}
}

type TaskFilter struct {
	Status   Status
	Category string
}

type NoteFilter struct {
	Category string
}
