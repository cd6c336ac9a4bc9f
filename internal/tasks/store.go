package tasks

import (
	"context"

	"taskpad-backend/internal/domain"
)

// Store persists tasks. Create is atomic; Get, Update and Delete return
// domain.ErrNotFound for unknown ids.
type Store interface {
	Create(ctx context.Context, draft domain.TaskDraft) (domain.Task, error)
	Get(ctx context.Context, id string) (domain.Task, error)
	List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
	Delete(ctx context.Context, id string) error
}
