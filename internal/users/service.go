package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sekolah-app/sekolah/internal/auth"
	"github.com/sekolah-app/sekolah/internal/rbac"
	"github.com/sekolah-app/sekolah/internal/shared"
)

// Service handles user administration. Account mutations are audited.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns users visible to the caller's school scope.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches one user, enforcing the caller's school scope.
func (s *Service) Get(ctx context.Context, principal *shared.Principal, id int64) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := checkScope(principal, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Create provisions an account with a bcrypt password hash.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, input NewUser) (User, error) {
	if input.SchoolID != nil {
		if err := rbac.CheckSchoolScope(principal, *input.SchoolID); err != nil {
			return User{}, err
		}
	} else if !principal.IsSystemAdmin() {
		// only system admins may create school-less (platform) accounts
		return User{}, fmt.Errorf("platform accounts require system admin: %w", shared.ErrForbidden)
	}
	if strings.TrimSpace(input.Email) == "" || len(input.Password) < 8 {
		return User{}, fmt.Errorf("email and a password of at least 8 characters are required: %w", shared.ErrValidationFailed)
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return User{}, err
	}
	created, err := s.repo.Create(ctx, input, hash)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, principal, "users.create", created)
	return created, nil
}

// Update changes display fields and the active flag.
func (s *Service) Update(ctx context.Context, principal *shared.Principal, id int64, fullName string, isActive bool) (User, error) {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return User{}, err
	}
	if strings.TrimSpace(fullName) == "" {
		return User{}, fmt.Errorf("full name is required: %w", shared.ErrValidationFailed)
	}
	updated, err := s.repo.Update(ctx, id, fullName, isActive)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, principal, "users.update", updated)
	return updated, nil
}

// Deactivate disables login for an account. Tokens already issued stay valid
// until they expire; the next refresh fails.
func (s *Service) Deactivate(ctx context.Context, principal *shared.Principal, id int64) error {
	user, err := s.Get(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.record(ctx, principal, "users.deactivate", user)
	return nil
}

// AssignRoles replaces the user's role set.
func (s *Service) AssignRoles(ctx context.Context, principal *shared.Principal, id int64, roleIDs []int64) (User, error) {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return User{}, err
	}
	if err := s.repo.ReplaceRoles(ctx, id, roleIDs); err != nil {
		return User{}, err
	}
	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, principal, "users.assign_roles", updated)
	return updated, nil
}

func checkScope(principal *shared.Principal, user User) error {
	if user.SchoolID == nil {
		if principal != nil && principal.IsSystemAdmin() {
			return nil
		}
		return fmt.Errorf("platform accounts require system admin: %w", shared.ErrForbidden)
	}
	return rbac.CheckSchoolScope(principal, *user.SchoolID)
}

func (s *Service) record(ctx context.Context, principal *shared.Principal, action string, user User) {
	if s.audit == nil || principal == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  principal.UserID,
		SchoolID: user.SchoolID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(user.ID, 10),
	})
}
