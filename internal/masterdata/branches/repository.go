package branches

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolah-app/sekolah/internal/shared"
)

// Repository defines persistence operations for branches.
type Repository interface {
	List(ctx context.Context, schoolID int64) ([]Branch, error)
	Get(ctx context.Context, id int64) (Branch, error)
	Create(ctx context.Context, branch Branch) (Branch, error)
	Update(ctx context.Context, id int64, branch Branch) (Branch, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const branchColumns = `id, school_id, name, code, address, phone`

func scanBranch(row pgx.Row) (Branch, error) {
	var b Branch
	err := row.Scan(&b.ID, &b.SchoolID, &b.Name, &b.Code, &b.Address, &b.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Branch{}, shared.ErrNotFound
		}
		return Branch{}, err
	}
	return b, nil
}

func (r *repository) List(ctx context.Context, schoolID int64) ([]Branch, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE school_id = $1 ORDER BY name`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var branches []Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Branch, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+branchColumns+` FROM branches WHERE id = $1`, id)
	return scanBranch(row)
}

func (r *repository) Create(ctx context.Context, branch Branch) (Branch, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO branches (school_id, name, code, address, phone) VALUES ($1, $2, $3, $4, $5)
		RETURNING `+branchColumns,
		branch.SchoolID, branch.Name, branch.Code, branch.Address, branch.Phone)
	created, err := scanBranch(row)
	if err != nil {
		return Branch{}, mapPGError(err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, branch Branch) (Branch, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE branches SET name = $2, code = $3, address = $4, phone = $5 WHERE id = $1
		RETURNING `+branchColumns,
		id, branch.Name, branch.Code, branch.Address, branch.Phone)
	updated, err := scanBranch(row)
	if err != nil {
		return Branch{}, mapPGError(err)
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM branches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
