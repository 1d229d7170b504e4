package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolah-app/sekolah/internal/shared"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// Service resolves role and permission data from PostgreSQL.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs a Service backed by the provided pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// ResolvePrincipal loads a user's current roles and flattened permissions,
// filtered to the user's school scope. Roles scoped to a different school are
// excluded here, so downstream checks only ever see correctly-scoped data.
func (s *Service) ResolvePrincipal(ctx context.Context, userID int64) (*shared.Principal, error) {
	var (
		email    string
		schoolID *int64
	)
	err := s.pool.QueryRow(ctx, `SELECT email, school_id FROM users WHERE id = $1`, userID).
		Scan(&email, &schoolID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	roles, err := s.userRoles(ctx, userID, schoolID)
	if err != nil {
		return nil, err
	}

	roleIDs := make([]int64, 0, len(roles))
	roleSlug := ""
	best := -1
	for _, role := range roles {
		roleIDs = append(roleIDs, role.ID)
		// The principal's label is its highest-ranking role.
		if level := HierarchyLevel(role.Slug); roleSlug == "" || level > best {
			best = level
			roleSlug = NormalizeRole(role.Slug)
		}
	}

	permissions, err := s.rolePermissions(ctx, roleIDs)
	if err != nil {
		return nil, err
	}

	return &shared.Principal{
		UserID:      userID,
		Email:       email,
		SchoolID:    schoolID,
		RoleIDs:     roleIDs,
		RoleSlug:    roleSlug,
		Permissions: permissions,
	}, nil
}

// EffectivePermissions returns deduplicated permission names for a user.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	principal, err := s.ResolvePrincipal(ctx, userID)
	if err != nil {
		return nil, err
	}
	return principal.Permissions, nil
}

// ListPermissions returns all permissions ordered by category and name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, category FROM permissions ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// userRoles returns the user's roles restricted to system-wide roles and
// roles of the user's own school.
func (s *Service) userRoles(ctx context.Context, userID int64, schoolID *int64) ([]Role, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.name, r.slug, r.description, r.school_id, r.is_system_role
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		  AND (r.school_id IS NULL OR r.school_id = $2)
		ORDER BY r.id`, userID, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Slug, &role.Description, &role.SchoolID, &role.IsSystemRole); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *Service) rolePermissions(ctx context.Context, roleIDs []int64) ([]string, error) {
	if len(roleIDs) == 0 {
		return []string{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT p.name
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = ANY($1)
		ORDER BY p.name`, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	perms := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		perms = append(perms, name)
	}
	return perms, rows.Err()
}
