package rbac

import (
	"fmt"

	"github.com/sekolah-app/sekolah/internal/shared"
)

// The evaluator answers "does this principal hold capability X". It works
// purely on the permission snapshot and role label carried by the principal;
// resource-level school checks belong to the services that load the data.

// HasPermission reports exact set membership of a permission name.
func HasPermission(p *shared.Principal, perm string) bool {
	if p == nil {
		return false
	}
	for _, granted := range p.Permissions {
		if granted == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether at least one of perms is granted.
func HasAnyPermission(p *shared.Principal, perms ...string) bool {
	if p == nil || len(perms) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(p.Permissions))
	for _, granted := range p.Permissions {
		set[granted] = struct{}{}
	}
	for _, perm := range perms {
		if _, ok := set[perm]; ok {
			return true
		}
	}
	return false
}

// CheckRole succeeds only when the principal's role label equals required.
func CheckRole(p *shared.Principal, required string) error {
	if p == nil || NormalizeRole(p.RoleSlug) != NormalizeRole(required) {
		return fmt.Errorf("role %q required: %w", required, shared.ErrForbidden)
	}
	return nil
}

// CheckAnyRole succeeds when the principal's role is one of allowed. An empty
// allowed list always fails; it never vacuously succeeds.
func CheckAnyRole(p *shared.Principal, allowed []string) error {
	if p == nil || len(allowed) == 0 {
		return fmt.Errorf("no role permitted: %w", shared.ErrForbidden)
	}
	actual := NormalizeRole(p.RoleSlug)
	for _, slug := range allowed {
		if actual == NormalizeRole(slug) {
			return nil
		}
	}
	return fmt.Errorf("role not permitted: %w", shared.ErrForbidden)
}

// CheckRoleHierarchy is the minimum-bar check: it succeeds when actual ranks
// at or above required in the fixed hierarchy. Self-comparisons succeed.
func CheckRoleHierarchy(actual, required string) error {
	actualLevel := HierarchyLevel(actual)
	requiredLevel := HierarchyLevel(required)
	if actualLevel < 0 || requiredLevel < 0 || actualLevel < requiredLevel {
		return fmt.Errorf("minimum role %q required: %w", required, shared.ErrForbidden)
	}
	return nil
}

// CheckSchoolScope rejects access to a resource from another school. System
// admins (no school scope) pass.
func CheckSchoolScope(p *shared.Principal, resourceSchoolID int64) error {
	if p == nil {
		return fmt.Errorf("no principal: %w", shared.ErrForbidden)
	}
	if p.IsSystemAdmin() {
		return nil
	}
	if *p.SchoolID != resourceSchoolID {
		return fmt.Errorf("resource outside school scope: %w", shared.ErrForbidden)
	}
	return nil
}
