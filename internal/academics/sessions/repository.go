package sessions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolah-app/sekolah/internal/shared"
)

// Repository defines persistence operations for academic sessions.
type Repository interface {
	List(ctx context.Context, schoolID int64) ([]AcademicSession, error)
	Get(ctx context.Context, id int64) (AcademicSession, error)
	Create(ctx context.Context, session AcademicSession) (AcademicSession, error)
	Update(ctx context.Context, id int64, session AcademicSession) (AcademicSession, error)
	Delete(ctx context.Context, id int64) error
	SetCurrent(ctx context.Context, schoolID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const sessionColumns = `id, school_id, name, start_date, end_date, is_current, created_at, updated_at`

func scanSession(row pgx.Row) (AcademicSession, error) {
	var s AcademicSession
	err := row.Scan(&s.ID, &s.SchoolID, &s.Name, &s.StartDate, &s.EndDate, &s.IsCurrent, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AcademicSession{}, shared.ErrNotFound
		}
		return AcademicSession{}, err
	}
	return s, nil
}

func (r *repository) List(ctx context.Context, schoolID int64) ([]AcademicSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM academic_sessions WHERE school_id = $1 ORDER BY start_date DESC`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []AcademicSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (AcademicSession, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM academic_sessions WHERE id = $1`, id)
	return scanSession(row)
}

func (r *repository) Create(ctx context.Context, session AcademicSession) (AcademicSession, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO academic_sessions (school_id, name, start_date, end_date, is_current, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, NOW(), NOW())
		RETURNING `+sessionColumns,
		session.SchoolID, session.Name, session.StartDate, session.EndDate)
	created, err := scanSession(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return AcademicSession{}, shared.ErrDuplicate
		}
		return AcademicSession{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, session AcademicSession) (AcademicSession, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE academic_sessions SET name = $2, start_date = $3, end_date = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+sessionColumns,
		id, session.Name, session.StartDate, session.EndDate)
	return scanSession(row)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM academic_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetCurrent flips the current flag to the given session inside one
// transaction so a school never has two current sessions.
func (r *repository) SetCurrent(ctx context.Context, schoolID, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`UPDATE academic_sessions SET is_current = FALSE, updated_at = NOW() WHERE school_id = $1 AND is_current`, schoolID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx,
		`UPDATE academic_sessions SET is_current = TRUE, updated_at = NOW() WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return tx.Commit(ctx)
}
