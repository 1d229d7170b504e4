package terms

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolah-app/sekolah/internal/shared"
)

// Repository defines persistence operations for terms.
type Repository interface {
	ListBySession(ctx context.Context, sessionID int64) ([]Term, error)
	Get(ctx context.Context, id int64) (Term, error)
	Create(ctx context.Context, term Term) (Term, error)
	Update(ctx context.Context, id int64, term Term) (Term, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Terms join their session so callers get school scope without a second query.
const termSelect = `
	SELECT t.id, t.session_id, s.school_id, t.name, t.start_date, t.end_date, t.created_at, t.updated_at
	FROM academic_terms t
	JOIN academic_sessions s ON s.id = t.session_id`

func scanTerm(row pgx.Row) (Term, error) {
	var t Term
	err := row.Scan(&t.ID, &t.SessionID, &t.SchoolID, &t.Name, &t.StartDate, &t.EndDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Term{}, shared.ErrNotFound
		}
		return Term{}, err
	}
	return t, nil
}

func (r *repository) ListBySession(ctx context.Context, sessionID int64) ([]Term, error) {
	rows, err := r.pool.Query(ctx, termSelect+` WHERE t.session_id = $1 ORDER BY t.start_date`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var terms []Term
	for rows.Next() {
		t, err := scanTerm(rows)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Term, error) {
	row := r.pool.QueryRow(ctx, termSelect+` WHERE t.id = $1`, id)
	return scanTerm(row)
}

func (r *repository) Create(ctx context.Context, term Term) (Term, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO academic_terms (session_id, name, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id`,
		term.SessionID, term.Name, term.StartDate, term.EndDate).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Term{}, shared.ErrDuplicate
		}
		return Term{}, err
	}
	return r.Get(ctx, id)
}

func (r *repository) Update(ctx context.Context, id int64, term Term) (Term, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE academic_terms SET name = $2, start_date = $3, end_date = $4, updated_at = NOW()
		WHERE id = $1`,
		id, term.Name, term.StartDate, term.EndDate)
	if err != nil {
		return Term{}, err
	}
	if tag.RowsAffected() == 0 {
		return Term{}, shared.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM academic_terms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
