package notes

import (
	"context"

	"taskpad-backend/internal/domain"
)

// Store persists notes. Get, Update and Delete return domain.ErrNotFound for
// unknown ids.
type Store interface {
	Create(ctx context.Context, draft domain.NoteDraft) (domain.Note, error)
	Get(ctx context.Context, id string) (domain.Note, error)
	List(ctx context.Context, filter domain.NoteFilter) ([]domain.Note, error)
	Update(ctx context.Context, id string, patch domain.NotePatch) (domain.Note, error)
	Delete(ctx context.Context, id string) error
}
