package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-app/inkwell/internal/shared"
)

// Repository provides PostgreSQL backed persistence for notes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByUser returns one page of the user's notes plus the total count.
func (r *Repository) ListByUser(ctx context.Context, userID string, page shared.Pagination) ([]Note, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notes WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("notes: count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, title, body, created_at, updated_at
		 FROM notes WHERE user_id = $1
		 ORDER BY updated_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("notes: list: %w", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *note)
	}
	return out, total, rows.Err()
}

// Get fetches a note owned by the given user.
func (r *Repository) Get(ctx context.Context, id, userID string) (*Note, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, title, body, created_at, updated_at
		 FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	return scanNote(row)
}

// Create inserts a new note.
func (r *Repository) Create(ctx context.Context, note *Note) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notes (id, user_id, title, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		note.ID, note.UserID, note.Title, note.Body,
		pgtype.Timestamptz{Time: now, Valid: true})
	if err != nil {
		return fmt.Errorf("notes: create: %w", err)
	}
	return nil
}

// Update rewrites title and body of a note owned by the given user.
func (r *Repository) Update(ctx context.Context, note *Note) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notes SET title = $3, body = $4, updated_at = $5
		 WHERE id = $1 AND user_id = $2`,
		note.ID, note.UserID, note.Title, note.Body,
		pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true})
	if err != nil {
		return fmt.Errorf("notes: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a note owned by the given user.
func (r *Repository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("notes: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanNote(row pgx.Row) (*Note, error) {
	var (
		note      Note
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&note.ID, &note.UserID, &note.Title, &note.Body, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	note.CreatedAt = createdAt.Time
	note.UpdatedAt = updatedAt.Time
	return &note, nil
}
