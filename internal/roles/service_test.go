package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sekolah-app/sekolah/internal/rbac"
	"github.com/sekolah-app/sekolah/internal/shared"
)

type memoryRoleRepo struct {
	roles       map[int64]rbac.Role
	permissions map[int64][]int64
	nextID      int64
}

func newMemoryRoleRepo(seed ...rbac.Role) *memoryRoleRepo {
	r := &memoryRoleRepo{roles: make(map[int64]rbac.Role), permissions: make(map[int64][]int64)}
	for _, role := range seed {
		r.roles[role.ID] = role
		if role.ID > r.nextID {
			r.nextID = role.ID
		}
	}
	return r
}

func (r *memoryRoleRepo) List(ctx context.Context, schoolID *int64) ([]rbac.Role, error) {
	var list []rbac.Role
	for _, role := range r.roles {
		if role.SchoolID == nil || (schoolID != nil && *role.SchoolID == *schoolID) {
			list = append(list, role)
		}
	}
	return list, nil
}

func (r *memoryRoleRepo) Get(ctx context.Context, id int64) (rbac.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return rbac.Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (r *memoryRoleRepo) Create(ctx context.Context, role rbac.Role) (rbac.Role, error) {
	r.nextID++
	role.ID = r.nextID
	r.roles[role.ID] = role
	return role, nil
}

func (r *memoryRoleRepo) Update(ctx context.Context, id int64, role rbac.Role) (rbac.Role, error) {
	current, ok := r.roles[id]
	if !ok || current.IsSystemRole {
		return rbac.Role{}, shared.ErrNotFound
	}
	current.Name = role.Name
	current.Description = role.Description
	r.roles[id] = current
	return current, nil
}

func (r *memoryRoleRepo) Delete(ctx context.Context, id int64) error {
	role, ok := r.roles[id]
	if !ok || role.IsSystemRole {
		return shared.ErrNotFound
	}
	delete(r.roles, id)
	return nil
}

func (r *memoryRoleRepo) ListPermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	return r.permissions[roleID], nil
}

func (r *memoryRoleRepo) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	r.permissions[roleID] = permissionIDs
	return nil
}

func admin(schoolID int64) *shared.Principal {
	return &shared.Principal{UserID: 1, SchoolID: &schoolID, RoleSlug: rbac.RoleAdmin}
}

func schoolRole(id, schoolID int64, slug string) rbac.Role {
	return rbac.Role{ID: id, Name: slug, Slug: slug, SchoolID: &schoolID}
}

func TestSystemRolesAreImmutable(t *testing.T) {
	system := rbac.Role{ID: 1, Name: "Admin", Slug: rbac.RoleAdmin, IsSystemRole: true}
	svc := NewService(newMemoryRoleRepo(system), nil)

	_, err := svc.Update(context.Background(), admin(1), 1, rbac.Role{Name: "Renamed"})
	require.ErrorIs(t, err, shared.ErrForbidden)

	require.ErrorIs(t, svc.Delete(context.Background(), admin(1), 1), shared.ErrForbidden)

	_, err = svc.SetPermissions(context.Background(), admin(1), 1, []int64{1, 2})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCreateCustomRoleRequiresSchool(t *testing.T) {
	svc := NewService(newMemoryRoleRepo(), nil)

	_, err := svc.Create(context.Background(), admin(1), rbac.Role{Name: "Wali Kelas", Slug: "homeroom"})
	require.ErrorIs(t, err, shared.ErrValidationFailed)
}

func TestCreateCustomRoleEnforcesScope(t *testing.T) {
	svc := NewService(newMemoryRoleRepo(), nil)
	otherSchool := int64(2)

	_, err := svc.Create(context.Background(), admin(1), rbac.Role{
		Name: "Wali Kelas", Slug: "homeroom", SchoolID: &otherSchool,
	})
	require.ErrorIs(t, err, shared.ErrForbidden)

	ownSchool := int64(1)
	created, err := svc.Create(context.Background(), admin(1), rbac.Role{
		Name: "Wali Kelas", Slug: "homeroom", SchoolID: &ownSchool,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
}

func TestSetPermissionsOnCustomRole(t *testing.T) {
	custom := schoolRole(5, 1, "homeroom")
	svc := NewService(newMemoryRoleRepo(custom), nil)

	role, err := svc.SetPermissions(context.Background(), admin(1), 5, []int64{10, 11})
	require.NoError(t, err)
	require.Equal(t, []int64{10, 11}, role.PermissionIDs)

	_, err = svc.SetPermissions(context.Background(), admin(2), 5, []int64{10})
	require.ErrorIs(t, err, shared.ErrForbidden)
}
