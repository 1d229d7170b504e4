package branches

import (
	"context"
	"fmt"
	"strings"

	"github.com/sekolah-app/sekolah/internal/rbac"
	"github.com/sekolah-app/sekolah/internal/shared"
)

// Service handles branch business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the branches of one school.
func (s *Service) List(ctx context.Context, schoolID int64) ([]Branch, error) {
	return s.repo.List(ctx, schoolID)
}

// Get fetches one branch, enforcing the caller's school scope.
func (s *Service) Get(ctx context.Context, principal *shared.Principal, id int64) (Branch, error) {
	branch, err := s.repo.Get(ctx, id)
	if err != nil {
		return Branch{}, err
	}
	if err := rbac.CheckSchoolScope(principal, branch.SchoolID); err != nil {
		return Branch{}, err
	}
	return branch, nil
}

// Create adds a branch to the principal's school.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, branch Branch) (Branch, error) {
	if err := rbac.CheckSchoolScope(principal, branch.SchoolID); err != nil {
		return Branch{}, err
	}
	if err := validate(branch); err != nil {
		return Branch{}, err
	}
	return s.repo.Create(ctx, branch)
}

// Update modifies a branch within the caller's school scope.
func (s *Service) Update(ctx context.Context, principal *shared.Principal, id int64, branch Branch) (Branch, error) {
	current, err := s.Get(ctx, principal, id)
	if err != nil {
		return Branch{}, err
	}
	branch.SchoolID = current.SchoolID
	if err := validate(branch); err != nil {
		return Branch{}, err
	}
	return s.repo.Update(ctx, id, branch)
}

// Delete removes a branch within the caller's school scope.
func (s *Service) Delete(ctx context.Context, principal *shared.Principal, id int64) error {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func validate(b Branch) error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("branch name is required: %w", shared.ErrValidationFailed)
	}
	return nil
}
