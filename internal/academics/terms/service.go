package terms

import (
	"context"
	"fmt"
	"strings"

	"github.com/sekolah-app/sekolah/internal/academics/sessions"
	"github.com/sekolah-app/sekolah/internal/rbac"
	"github.com/sekolah-app/sekolah/internal/shared"
)

// SessionStore is the slice of the sessions repository that terms need.
type SessionStore interface {
	Get(ctx context.Context, id int64) (sessions.AcademicSession, error)
}

// Service handles term business logic. Term date ranges must stay inside
// their session's range.
type Service struct {
	repo     Repository
	sessions SessionStore
}

// NewService builds a Service instance.
func NewService(repo Repository, store SessionStore) *Service {
	return &Service{repo: repo, sessions: store}
}

func validate(term Term, session sessions.AcademicSession) error {
	if strings.TrimSpace(term.Name) == "" {
		return fmt.Errorf("name is required: %w", shared.ErrValidationFailed)
	}
	if !term.StartDate.Before(term.EndDate) {
		return fmt.Errorf("start date must be before end date: %w", shared.ErrValidationFailed)
	}
	if term.StartDate.Before(session.StartDate) || term.EndDate.After(session.EndDate) {
		return fmt.Errorf("term dates must fall within the session: %w", shared.ErrValidationFailed)
	}
	return nil
}

// ListBySession returns the terms of one session in chronological order.
func (s *Service) ListBySession(ctx context.Context, principal *shared.Principal, sessionID int64) ([]Term, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := rbac.CheckSchoolScope(principal, session.SchoolID); err != nil {
		return nil, err
	}
	return s.repo.ListBySession(ctx, sessionID)
}

// Get fetches one term, enforcing the caller's school scope.
func (s *Service) Get(ctx context.Context, principal *shared.Principal, id int64) (Term, error) {
	term, err := s.repo.Get(ctx, id)
	if err != nil {
		return Term{}, err
	}
	if err := rbac.CheckSchoolScope(principal, term.SchoolID); err != nil {
		return Term{}, err
	}
	return term, nil
}

// Create adds a term to a session the caller may manage.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, term Term) (Term, error) {
	session, err := s.sessions.Get(ctx, term.SessionID)
	if err != nil {
		return Term{}, err
	}
	if err := rbac.CheckSchoolScope(principal, session.SchoolID); err != nil {
		return Term{}, err
	}
	if err := validate(term, session); err != nil {
		return Term{}, err
	}
	return s.repo.Create(ctx, term)
}

// Update modifies a term, revalidating against its session's date range.
func (s *Service) Update(ctx context.Context, principal *shared.Principal, id int64, term Term) (Term, error) {
	current, err := s.Get(ctx, principal, id)
	if err != nil {
		return Term{}, err
	}
	session, err := s.sessions.Get(ctx, current.SessionID)
	if err != nil {
		return Term{}, err
	}
	if err := validate(term, session); err != nil {
		return Term{}, err
	}
	return s.repo.Update(ctx, id, term)
}

// Delete removes a term within the caller's school scope.
func (s *Service) Delete(ctx context.Context, principal *shared.Principal, id int64) error {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
