package roles

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sekolah-app/sekolah/internal/rbac"
	"github.com/sekolah-app/sekolah/internal/shared"
)

// RoleWithPermissions pairs a role with its attached permission IDs.
type RoleWithPermissions struct {
	rbac.Role
	PermissionIDs []int64 `json:"permission_ids"`
}

// Service handles role administration. System roles are read-only through
// this surface; only school-scoped custom roles can be changed.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns the roles visible to one school (system roles included).
func (s *Service) List(ctx context.Context, schoolID *int64) ([]rbac.Role, error) {
	return s.repo.List(ctx, schoolID)
}

// Get fetches one role with its permission attachments.
func (s *Service) Get(ctx context.Context, principal *shared.Principal, id int64) (RoleWithPermissions, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	if err := checkScope(principal, role); err != nil {
		return RoleWithPermissions{}, err
	}
	ids, err := s.repo.ListPermissionIDs(ctx, id)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	return RoleWithPermissions{Role: role, PermissionIDs: ids}, nil
}

// Create adds a custom role to a school.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, role rbac.Role) (rbac.Role, error) {
	if role.SchoolID == nil {
		return rbac.Role{}, fmt.Errorf("custom roles must belong to a school: %w", shared.ErrValidationFailed)
	}
	if err := rbac.CheckSchoolScope(principal, *role.SchoolID); err != nil {
		return rbac.Role{}, err
	}
	if err := validate(role); err != nil {
		return rbac.Role{}, err
	}
	created, err := s.repo.Create(ctx, role)
	if err != nil {
		return rbac.Role{}, err
	}
	s.record(ctx, principal, "roles.create", created)
	return created, nil
}

// Update modifies a custom role. System roles are refused before hitting storage.
func (s *Service) Update(ctx context.Context, principal *shared.Principal, id int64, role rbac.Role) (rbac.Role, error) {
	current, err := s.mutable(ctx, principal, id)
	if err != nil {
		return rbac.Role{}, err
	}
	role.Slug = current.Slug
	if err := validate(role); err != nil {
		return rbac.Role{}, err
	}
	updated, err := s.repo.Update(ctx, id, role)
	if err != nil {
		return rbac.Role{}, err
	}
	s.record(ctx, principal, "roles.update", updated)
	return updated, nil
}

// Delete removes a custom role.
func (s *Service) Delete(ctx context.Context, principal *shared.Principal, id int64) error {
	role, err := s.mutable(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, principal, "roles.delete", role)
	return nil
}

// SetPermissions replaces the permission attachments of a custom role.
func (s *Service) SetPermissions(ctx context.Context, principal *shared.Principal, id int64, permissionIDs []int64) (RoleWithPermissions, error) {
	role, err := s.mutable(ctx, principal, id)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	if err := s.repo.ReplacePermissions(ctx, id, permissionIDs); err != nil {
		return RoleWithPermissions{}, err
	}
	s.record(ctx, principal, "roles.set_permissions", role)
	return s.Get(ctx, principal, id)
}

func (s *Service) mutable(ctx context.Context, principal *shared.Principal, id int64) (rbac.Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return rbac.Role{}, err
	}
	if err := checkScope(principal, role); err != nil {
		return rbac.Role{}, err
	}
	if role.IsSystemRole {
		return rbac.Role{}, fmt.Errorf("system roles are immutable: %w", shared.ErrForbidden)
	}
	return role, nil
}

func checkScope(principal *shared.Principal, role rbac.Role) error {
	if role.SchoolID == nil {
		// system roles are visible to everyone
		return nil
	}
	return rbac.CheckSchoolScope(principal, *role.SchoolID)
}

func validate(role rbac.Role) error {
	if strings.TrimSpace(role.Name) == "" {
		return fmt.Errorf("name is required: %w", shared.ErrValidationFailed)
	}
	if strings.TrimSpace(role.Slug) == "" {
		return fmt.Errorf("slug is required: %w", shared.ErrValidationFailed)
	}
	return nil
}

func (s *Service) record(ctx context.Context, principal *shared.Principal, action string, role rbac.Role) {
	if s.audit == nil || principal == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  principal.UserID,
		SchoolID: role.SchoolID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(role.ID, 10),
	})
}
