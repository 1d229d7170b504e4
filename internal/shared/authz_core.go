package shared

// Core platform permissions. Names are flat atomic strings; there is no
// wildcard or hierarchy inside a permission name.
const (
	PermUsersRead  = "users:read"
	PermUsersWrite = "users:write"

	PermRolesRead  = "roles:read"
	PermRolesWrite = "roles:write"

	PermPermissionsRead = "permissions:read"

	PermSchoolsRead  = "schools:read"
	PermSchoolsWrite = "schools:write"

	PermLevelsRead  = "levels:read"
	PermLevelsWrite = "levels:write"

	PermBranchesRead  = "branches:read"
	PermBranchesWrite = "branches:write"

	PermStudentsRead  = "students:read"
	PermStudentsWrite = "students:write"

	PermSessionsRead  = "sessions:read"
	PermSessionsWrite = "sessions:write"

	PermTermsRead  = "terms:read"
	PermTermsWrite = "terms:write"

	PermAuditRead = "audit:read"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersRead,
		PermUsersWrite,
		PermRolesRead,
		PermRolesWrite,
		PermPermissionsRead,
		PermSchoolsRead,
		PermSchoolsWrite,
		PermLevelsRead,
		PermLevelsWrite,
		PermBranchesRead,
		PermBranchesWrite,
		PermStudentsRead,
		PermStudentsWrite,
		PermSessionsRead,
		PermSessionsWrite,
		PermTermsRead,
		PermTermsWrite,
		PermAuditRead,
	}
}
