package schools

import (
	"context"

	"github.com/sekolah-app/sekolah/internal/shared"
)

// Service handles school business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns schools matching the filters.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]School, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches one school.
func (s *Service) Get(ctx context.Context, id int64) (School, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new school tenant.
func (s *Service) Create(ctx context.Context, school School) (School, error) {
	if err := validate(school); err != nil {
		return School{}, err
	}
	return s.repo.Create(ctx, school)
}

// Update modifies an existing school.
func (s *Service) Update(ctx context.Context, id int64, school School) (School, error) {
	if err := validate(school); err != nil {
		return School{}, err
	}
	return s.repo.Update(ctx, id, school)
}

// Delete removes a school.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
