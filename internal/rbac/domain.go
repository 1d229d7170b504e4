package rbac

import (
	"strings"
	"time"
)

// Role represents a high-level permission grouping. A role with a nil
// SchoolID is system-wide; otherwise it belongs to exactly one school and is
// never shared across schools.
type Role struct {
	ID           int64
	Name         string
	Slug         string
	Description  string
	SchoolID     *int64
	IsSystemRole bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Permission represents an atomic capability. Names are flat strings such as
// "users:read"; there are no wildcards.
type Permission struct {
	ID          int64
	Name        string
	Description string
	Category    string
}

// The four fixed roles that participate in the minimum-role hierarchy.
const (
	RoleSystemAdmin = "system_admin"
	RoleAdmin       = "admin"
	RoleTeacher     = "teacher"
	RoleStudent     = "student"
)

// HierarchyLevel returns the rank of a role slug in the fixed order
// system_admin(3) > admin(2) > teacher(1) > student(0). Slugs outside the
// hierarchy rank below student and never satisfy a minimum-role check.
func HierarchyLevel(slug string) int {
	switch NormalizeRole(slug) {
	case RoleSystemAdmin:
		return 3
	case RoleAdmin:
		return 2
	case RoleTeacher:
		return 1
	case RoleStudent:
		return 0
	default:
		return -1
	}
}

// NormalizeRole canonicalizes a role label for comparison.
func NormalizeRole(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
