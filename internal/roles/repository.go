package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolah-app/sekolah/internal/rbac"
	"github.com/sekolah-app/sekolah/internal/shared"
)

// RepositoryPort defines data access methods for role administration.
type RepositoryPort interface {
	List(ctx context.Context, schoolID *int64) ([]rbac.Role, error)
	Get(ctx context.Context, id int64) (rbac.Role, error)
	Create(ctx context.Context, role rbac.Role) (rbac.Role, error)
	Update(ctx context.Context, id int64, role rbac.Role) (rbac.Role, error)
	Delete(ctx context.Context, id int64) error
	ListPermissionIDs(ctx context.Context, roleID int64) ([]int64, error)
	ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

const roleColumns = `id, name, slug, description, school_id, is_system_role, created_at, updated_at`

func scanRole(row pgx.Row) (rbac.Role, error) {
	var role rbac.Role
	err := row.Scan(&role.ID, &role.Name, &role.Slug, &role.Description,
		&role.SchoolID, &role.IsSystemRole, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rbac.Role{}, shared.ErrNotFound
		}
		return rbac.Role{}, err
	}
	return role, nil
}

// List returns system roles plus, when schoolID is set, that school's custom roles.
func (r *repository) List(ctx context.Context, schoolID *int64) ([]rbac.Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+roleColumns+` FROM roles
		WHERE school_id IS NULL OR school_id = $1
		ORDER BY is_system_role DESC, name`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []rbac.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, role)
	}
	return list, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (rbac.Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	return scanRole(row)
}

func (r *repository) Create(ctx context.Context, role rbac.Role) (rbac.Role, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, slug, description, school_id, is_system_role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, NOW(), NOW())
		RETURNING `+roleColumns,
		role.Name, role.Slug, role.Description, role.SchoolID)
	created, err := scanRole(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return rbac.Role{}, shared.ErrDuplicate
		}
		return rbac.Role{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, role rbac.Role) (rbac.Role, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE roles SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1 AND NOT is_system_role
		RETURNING `+roleColumns,
		id, role.Name, role.Description)
	return scanRole(row)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1 AND NOT is_system_role`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListPermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT permission_id FROM role_permissions WHERE role_id = $1 ORDER BY permission_id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return err
	}
	for _, permissionID := range permissionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, permissionID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
