package permissions

import (
	"context"
	"fmt"
	"strings"

	"github.com/gatekeep/gatekeep/internal/shared"
)

// Service handles permission business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all permissions.
func (s *Service) List(ctx context.Context) ([]Permission, error) {
	return s.repo.List(ctx)
}

// Get fetches a permission by id.
func (s *Service) Get(ctx context.Context, id int64) (Permission, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a permission after trimming and validating the name.
func (s *Service) Create(ctx context.Context, name, description string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, fmt.Errorf("permissions: name required: %w", shared.ErrValidation)
	}
	return s.repo.Create(ctx, name, strings.TrimSpace(description))
}

// Update modifies an existing permission.
func (s *Service) Update(ctx context.Context, id int64, name, description string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, fmt.Errorf("permissions: name required: %w", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, name, strings.TrimSpace(description))
}

// Delete removes a permission by id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Count returns the number of permissions.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
