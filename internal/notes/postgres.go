package notes

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

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var noteColumns = []string{"id", "title", "content", "categories", "created_at", "updated_at"}

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

func scanNote(row rowScanner) (domain.Note, error) {
	var n domain.Note
	if err := row.Scan(&n.ID, &n.Title, &n.Content, pq.Array(&n.Categories), &n.CreatedAt, &n.UpdatedAt); err != nil {
		return domain.Note{}, err
	}
	if n.Categories == nil {
		n.Categories = []string{}
	}
	return n, nil
}

func returning() string {
	return "RETURNING " + strings.Join(noteColumns, ", ")
}

func (s *PostgresStore) Create(ctx context.Context, draft domain.NoteDraft) (domain.Note, error) {
	if err := draft.Normalize(); err != nil {
		return domain.Note{}, err
	}

	now := s.now().UTC()
	query, args, err := psql.Insert("notes").
		Columns(noteColumns...).
		Values(uuid.NewString(), draft.Title, draft.Content, pq.Array(draft.Categories), now, now).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return domain.Note{}, fmt.Errorf("building insert query: %w", err)
	}

	note, err := scanNote(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Note{}, fmt.Errorf("inserting note: %w", err)
	}
	return note, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (domain.Note, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Note{}, domain.ErrNotFound
	}

	query, args, err := psql.Select(noteColumns...).From("notes").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Note{}, fmt.Errorf("building select query: %w", err)
	}

	note, err := scanNote(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Note{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Note{}, fmt.Errorf("scanning note: %w", err)
	}
	return note, nil
}

func listQuery(filter domain.NoteFilter) squirrel.SelectBuilder {
	qb := psql.Select(noteColumns...).From("notes")
	if c := strings.ToLower(strings.TrimSpace(filter.Category)); c != "" {
		qb = qb.Where("? = ANY(categories)", c)
	}
	return qb.OrderBy("created_at DESC", "id")
}

func (s *PostgresStore) List(ctx context.Context, filter domain.NoteFilter) ([]domain.Note, error) {
	query, args, err := listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	result := []domain.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return result, nil
}

func updateQuery(id string, p domain.NotePatch, now time.Time) squirrel.UpdateBuilder {
	qb := psql.Update("notes").Set("updated_at", now)
	if p.Title != nil {
		qb = qb.Set("title", *p.Title)
	}
	if p.Content != nil {
		qb = qb.Set("content", strings.TrimSpace(*p.Content))
	}
	if p.Categories != nil {
		qb = qb.Set("categories", pq.Array(*p.Categories))
	}
	return qb.Where(squirrel.Eq{"id": id}).Suffix(returning())
}

func (s *PostgresStore) Update(ctx context.Context, id string, patch domain.NotePatch) (domain.Note, error) {
	if err := patch.Validate(); err != nil {
		return domain.Note{}, err
	}
	if patch.Empty() {
		return s.Get(ctx, id)
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.Note{}, domain.ErrNotFound
	}

	query, args, err := updateQuery(id, patch, s.now().UTC()).ToSql()
	if err != nil {
		return domain.Note{}, fmt.Errorf("building update query: %w", err)
	}

	note, err := scanNote(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Note{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Note{}, fmt.Errorf("updating note: %w", err)
	}
	return note, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}

	query, args, err := psql.Delete("notes").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
