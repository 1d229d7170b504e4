package sessions

import (
	"context"
	"fmt"
	"strings"

	"github.com/sekolah-app/sekolah/internal/rbac"
	"github.com/sekolah-app/sekolah/internal/shared"
)

// Service handles academic session business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validate(s AcademicSession) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required: %w", shared.ErrValidationFailed)
	}
	if !s.StartDate.Before(s.EndDate) {
		return fmt.Errorf("start date must be before end date: %w", shared.ErrValidationFailed)
	}
	return nil
}

// List returns the sessions of one school, newest first.
func (s *Service) List(ctx context.Context, schoolID int64) ([]AcademicSession, error) {
	return s.repo.List(ctx, schoolID)
}

// Get fetches one session, enforcing the caller's school scope.
func (s *Service) Get(ctx context.Context, principal *shared.Principal, id int64) (AcademicSession, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return AcademicSession{}, err
	}
	if err := rbac.CheckSchoolScope(principal, session.SchoolID); err != nil {
		return AcademicSession{}, err
	}
	return session, nil
}

// Create adds a session to the principal's school. New sessions are never
// current; SetCurrent promotes them explicitly.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, session AcademicSession) (AcademicSession, error) {
	if err := rbac.CheckSchoolScope(principal, session.SchoolID); err != nil {
		return AcademicSession{}, err
	}
	if err := validate(session); err != nil {
		return AcademicSession{}, err
	}
	return s.repo.Create(ctx, session)
}

// Update modifies a session within the caller's school scope.
func (s *Service) Update(ctx context.Context, principal *shared.Principal, id int64, session AcademicSession) (AcademicSession, error) {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return AcademicSession{}, err
	}
	if err := validate(session); err != nil {
		return AcademicSession{}, err
	}
	return s.repo.Update(ctx, id, session)
}

// Delete removes a session within the caller's school scope.
func (s *Service) Delete(ctx context.Context, principal *shared.Principal, id int64) error {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// SetCurrent marks a session as the school's current one, demoting any other.
func (s *Service) SetCurrent(ctx context.Context, principal *shared.Principal, id int64) (AcademicSession, error) {
	session, err := s.Get(ctx, principal, id)
	if err != nil {
		return AcademicSession{}, err
	}
	if err := s.repo.SetCurrent(ctx, session.SchoolID, id); err != nil {
		return AcademicSession{}, err
	}
	return s.repo.Get(ctx, id)
}
