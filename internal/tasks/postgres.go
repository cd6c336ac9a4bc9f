package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"taskpad-backend/internal/domain"
)

// DB is the subset of *sql.DB the store needs.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var taskColumns = []string{
	"id", "title", "description", "priority", "status", "difficulty",
	"due_time", "categories", "steps", "created_at", "updated_at",
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type PostgresStore struct {
	db  DB
	now func() time.Time
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	var (
		t   domain.Task
		due sql.NullTime
	)
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Status,
		&t.Difficulty,
		&due,
		pq.Array(&t.Categories),
		pq.Array(&t.Steps),
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return domain.Task{}, err
	}
	if due.Valid {
		d := due.Time
		t.DueTime = &d
	}
	if t.Categories == nil {
		t.Categories = []string{}
	}
	if t.Steps == nil {
		t.Steps = []string{}
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func insertQuery(id string, d domain.TaskDraft, now time.Time) squirrel.InsertBuilder {
	return psql.Insert("tasks").
		Columns(taskColumns...).
		Values(
			id, d.Title, d.Description, string(d.Priority), string(d.Status), d.Difficulty,
			nullTime(d.DueTime), pq.Array(d.Categories), pq.Array(d.Steps), now, now,
		).
		Suffix("RETURNING " + strings.Join(taskColumns, ", "))
}

func (s *PostgresStore) Create(ctx context.Context, draft domain.TaskDraft) (domain.Task, error) {
	if err := draft.Normalize(); err != nil {
		return domain.Task{}, err
	}

	query, args, err := insertQuery(uuid.NewString(), draft, s.now().UTC()).ToSql()
	if err != nil {
		return domain.Task{}, fmt.Errorf("building insert query: %w", err)
	}

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Task{}, fmt.Errorf("inserting task: %w", err)
	}
	return task, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Task{}, domain.ErrNotFound
	}

	query, args, err := psql.Select(taskColumns...).
		From("tasks").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Task{}, fmt.Errorf("building select query: %w", err)
	}

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Task{}, fmt.Errorf("scanning task: %w", err)
	}
	return task, nil
}

func listQuery(filter domain.TaskFilter) squirrel.SelectBuilder {
	qb := psql.Select(taskColumns...).From("tasks")
	if filter.Status != "" {
		qb = qb.Where(squirrel.Eq{"status": string(filter.Status)})
	}
	if c := strings.ToLower(strings.TrimSpace(filter.Category)); c != "" {
		qb = qb.Where("? = ANY(categories)", c)
	}
	return qb.OrderBy("created_at DESC", "id")
}

func (s *PostgresStore) List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	query, args, err := listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	result := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return result, nil
}

func updateQuery(id string, p domain.TaskPatch, now time.Time) squirrel.UpdateBuilder {
	qb := psql.Update("tasks").Set("updated_at", now)

	if p.Title != nil {
		qb = qb.Set("title", *p.Title)
	}
	if p.Description != nil {
		qb = qb.Set("description", strings.TrimSpace(*p.Description))
	}
	if p.Priority != nil {
		qb = qb.Set("priority", string(*p.Priority))
	}
	if p.Status != nil {
		qb = qb.Set("status", string(*p.Status))
	}
	if p.Difficulty != nil {
		qb = qb.Set("difficulty", *p.Difficulty)
	}
	if p.ClearDueTime {
		qb = qb.Set("due_time", nil)
	} else if p.DueTime != nil {
		qb = qb.Set("due_time", *p.DueTime)
	}
	if p.Categories != nil {
		qb = qb.Set("categories", pq.Array(*p.Categories))
	}
	if p.Steps != nil {
		qb = qb.Set("steps", pq.Array(*p.Steps))
	}

	return qb.Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(taskColumns, ", "))
}

func (s *PostgresStore) Update(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	if err := patch.Validate(); err != nil {
		return domain.Task{}, err
	}
	if patch.Empty() {
		return s.Get(ctx, id)
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.Task{}, domain.ErrNotFound
	}

	query, args, err := updateQuery(id, patch, s.now().UTC()).ToSql()
	if err != nil {
		return domain.Task{}, fmt.Errorf("building update query: %w", err)
	}

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Task{}, fmt.Errorf("updating task: %w", err)
	}
	return task, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}

	query, args, err := psql.Delete("tasks").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
