package notes

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
	notes map[string]domain.Note
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notes: make(map[string]domain.Note),
		now:   time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, draft domain.NoteDraft) (domain.Note, error) {
	if err := draft.Normalize(); err != nil {
		return domain.Note{}, err
	}

	now := s.now().UTC()
	note := domain.Note{
		ID:         uuid.NewString(),
		Title:      draft.Title,
		Content:    draft.Content,
		Categories: draft.Categories,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.notes[note.ID] = cloneNote(note)
	s.mu.Unlock()

	return cloneNote(note), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.Note, error) {
	s.mu.RLock()
	note, ok := s.notes[id]
	s.mu.RUnlock()

	if !ok {
		return domain.Note{}, domain.ErrNotFound
	}
	return cloneNote(note), nil
}

func (s *MemoryStore) List(_ context.Context, filter domain.NoteFilter) ([]domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Note, 0, len(s.notes))
	for _, n := range s.notes {
		if filter.Category != "" && !domain.HasCategory(n.Categories, filter.Category) {
			continue
		}
		out = append(out, cloneNote(n))
	}

	slices.SortFunc(out, func(a, b domain.Note) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, patch domain.NotePatch) (domain.Note, error) {
	if err := patch.Validate(); err != nil {
		return domain.Note{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	note, ok := s.notes[id]
	if !ok {
		return domain.Note{}, domain.ErrNotFound
	}

	patch.Apply(&note)
	note.UpdatedAt = s.now().UTC()
	s.notes[id] = cloneNote(note)

	return cloneNote(note), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

func cloneNote(n domain.Note) domain.Note {
	n.Categories = slices.Clone(n.Categories)
	return n
}
