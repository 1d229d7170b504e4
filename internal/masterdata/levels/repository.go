package levels

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolah-app/sekolah/internal/shared"
)

// Repository defines persistence operations for levels.
type Repository interface {
	List(ctx context.Context, schoolID int64) ([]Level, error)
	Get(ctx context.Context, id int64) (Level, error)
	Create(ctx context.Context, level Level) (Level, error)
	Update(ctx context.Context, id int64, level Level) (Level, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func scanLevel(row pgx.Row) (Level, error) {
	var l Level
	err := row.Scan(&l.ID, &l.SchoolID, &l.Name, &l.Code, &l.Rank)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Level{}, shared.ErrNotFound
		}
		return Level{}, err
	}
	return l, nil
}

func (r *repository) List(ctx context.Context, schoolID int64) ([]Level, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, school_id, name, code, rank FROM levels WHERE school_id = $1 ORDER BY rank, name`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var levels []Level
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Level, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, school_id, name, code, rank FROM levels WHERE id = $1`, id)
	return scanLevel(row)
}

func (r *repository) Create(ctx context.Context, level Level) (Level, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO levels (school_id, name, code, rank) VALUES ($1, $2, $3, $4)
		RETURNING id, school_id, name, code, rank`,
		level.SchoolID, level.Name, level.Code, level.Rank)
	created, err := scanLevel(row)
	if err != nil {
		return Level{}, mapPGError(err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, level Level) (Level, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE levels SET name = $2, code = $3, rank = $4 WHERE id = $1
		RETURNING id, school_id, name, code, rank`,
		id, level.Name, level.Code, level.Rank)
	updated, err := scanLevel(row)
	if err != nil {
		return Level{}, mapPGError(err)
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM levels WHERE id = $1`, id)
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
