package notes

import (
	"context"

	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/internal/shared"
)

// RepositoryPort defines data access methods for notes.
type RepositoryPort interface {
	ListByUser(ctx context.Context, userID string, page shared.Pagination) ([]Note, int, error)
	Get(ctx context.Context, id, userID string) (*Note, error)
	Create(ctx context.Context, note *Note) error
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, id, userID string) error
}

// Service handles note business logic. Every operation is scoped to the
// owning user; a note belonging to someone else behaves as absent.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns one page of the user's notes.
func (s *Service) List(ctx context.Context, userID string, page, perPage int) ([]Note, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one owned note.
func (s *Service) Get(ctx context.Context, id, userID string) (*Note, error) {
	return s.repo.Get(ctx, id, userID)
}

// Create persists a new note for the user.
func (s *Service) Create(ctx context.Context, userID, title, body string) (*Note, error) {
	note := &Note{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
		Body:   body,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Update rewrites an owned note.
func (s *Service) Update(ctx context.Context, id, userID, title, body string) error {
	return s.repo.Update(ctx, &Note{ID: id, UserID: userID, Title: title, Body: body})
}

// Delete removes an owned note.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	return s.repo.Delete(ctx, id, userID)
}
