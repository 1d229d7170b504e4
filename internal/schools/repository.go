package schools

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolah-app/sekolah/internal/shared"
)

// Repository defines persistence operations for schools.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]School, int, error)
	Get(ctx context.Context, id int64) (School, error)
	Create(ctx context.Context, school School) (School, error)
	Update(ctx context.Context, id int64, school School) (School, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const schoolColumns = `id, name, code, address, phone, email, is_active, created_at, updated_at`

func scanSchool(row pgx.Row) (School, error) {
	var s School
	err := row.Scan(&s.ID, &s.Name, &s.Code, &s.Address, &s.Phone, &s.Email, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return School{}, shared.ErrNotFound
		}
		return School{}, err
	}
	return s, nil
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]School, int, error) {
	filters = filters.Normalize()
	query := `SELECT ` + schoolColumns + ` FROM schools WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM schools WHERE 1=1`
	args := []interface{}{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		clause := ` AND (name ILIKE $` + strconv.Itoa(len(args)) + ` OR code ILIKE $` + strconv.Itoa(len(args)) + `)`
		query += clause
		countQuery += clause
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var schools []School
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, 0, err
		}
		schools = append(schools, s)
	}
	return schools, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (School, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+schoolColumns+` FROM schools WHERE id = $1`, id)
	return scanSchool(row)
}

func (r *repository) Create(ctx context.Context, school School) (School, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO schools (name, code, address, phone, email, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		RETURNING `+schoolColumns,
		school.Name, school.Code, school.Address, school.Phone, school.Email)
	created, err := scanSchool(row)
	if err != nil {
		return School{}, mapPGError(err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, school School) (School, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE schools
		SET name = $2, code = $3, address = $4, phone = $5, email = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+schoolColumns,
		id, school.Name, school.Code, school.Address, school.Phone, school.Email, school.IsActive)
	updated, err := scanSchool(row)
	if err != nil {
		return School{}, mapPGError(err)
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schools WHERE id = $1`, id)
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
