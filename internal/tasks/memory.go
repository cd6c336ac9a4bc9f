package tasks

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskpad-backend/internal/domain"
)

type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]domain.Task),
		now:   time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, draft domain.TaskDraft) (domain.Task, error) {
	if err := draft.Normalize(); err != nil {
		return domain.Task{}, err
	}

	now := s.now().UTC()
	task := domain.Task{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    draft.Priority,
		Status:      draft.Status,
		Difficulty:  draft.Difficulty,
		DueTime:     draft.DueTime,
		Categories:  draft.Categories,
		Steps:       draft.Steps,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.tasks[task.ID] = cloneTask(task)
	s.mu.Unlock()

	return cloneTask(task), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.Task, error) {
	s.mu.RLock()
	task, ok := s.tasks[id]
	s.mu.RUnlock()

	if !ok {
		return domain.Task{}, domain.ErrNotFound
	}
	return cloneTask(task), nil
}

func (s *MemoryStore) List(_ context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Category != "" && !domain.HasCategory(t.Categories, filter.Category) {
			continue
		}
		out = append(out, cloneTask(t))
	}

	slices.SortFunc(out, func(a, b domain.Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	if err := patch.Validate(); err != nil {
		return domain.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrNotFound
	}

	patch.Apply(&task)
	task.UpdatedAt = s.now().UTC()
	s.tasks[id] = cloneTask(task)

	return cloneTask(task), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// cloneTask copies the slices and the due time so callers never share memory
// with the stored record.
func cloneTask(t domain.Task) domain.Task {
	t.Categories = slices.Clone(t.Categories)
	t.Steps = slices.Clone(t.Steps)
	if t.DueTime != nil {
		due := *t.DueTime
		t.DueTime = &due
	}
	return t
}
