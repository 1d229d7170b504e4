package levels

import (
	"context"
	"fmt"
	"strings"

	"github.com/sekolah-app/sekolah/internal/rbac"
	"github.com/sekolah-app/sekolah/internal/shared"
)

// Service handles level business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the levels of one school.
func (s *Service) List(ctx context.Context, schoolID int64) ([]Level, error) {
	return s.repo.List(ctx, schoolID)
}

// Get fetches one level, enforcing the caller's school scope.
func (s *Service) Get(ctx context.Context, principal *shared.Principal, id int64) (Level, error) {
	level, err := s.repo.Get(ctx, id)
	if err != nil {
		return Level{}, err
	}
	if err := rbac.CheckSchoolScope(principal, level.SchoolID); err != nil {
		return Level{}, err
	}
	return level, nil
}

// Create adds a level to the principal's school.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, level Level) (Level, error) {
	if err := rbac.CheckSchoolScope(principal, level.SchoolID); err != nil {
		return Level{}, err
	}
	if err := validate(level); err != nil {
		return Level{}, err
	}
	return s.repo.Create(ctx, level)
}

// Update modifies a level within the caller's school scope.
func (s *Service) Update(ctx context.Context, principal *shared.Principal, id int64, level Level) (Level, error) {
	current, err := s.Get(ctx, principal, id)
	if err != nil {
		return Level{}, err
	}
	level.SchoolID = current.SchoolID
	if err := validate(level); err != nil {
		return Level{}, err
	}
	return s.repo.Update(ctx, id, level)
}

// Delete removes a level within the caller's school scope.
func (s *Service) Delete(ctx context.Context, principal *shared.Principal, id int64) error {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func validate(l Level) error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("level name is required: %w", shared.ErrValidationFailed)
	}
	if l.Rank < 0 {
		return fmt.Errorf("level rank must not be negative: %w", shared.ErrValidationFailed)
	}
	return nil
}
