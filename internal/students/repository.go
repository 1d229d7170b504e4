package students

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolah-app/sekolah/internal/shared"
)

// Repository defines persistence operations for students.
type Repository interface {
	List(ctx context.Context, schoolID int64, filters shared.ListFilters) ([]Student, int, error)
	Get(ctx context.Context, id int64) (Student, error)
	Create(ctx context.Context, student Student) (Student, error)
	Update(ctx context.Context, id int64, student Student) (Student, error)
	Deactivate(ctx context.Context, id int64) error
	Stats(ctx context.Context, schoolID int64) (Stats, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const studentColumns = `id, school_id, admission_number, first_name, last_name, email, level_id, branch_id, is_active, enrolled_at, created_at, updated_at`

func scanStudent(row pgx.Row) (Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.SchoolID, &s.AdmissionNumber, &s.FirstName, &s.LastName, &s.Email,
		&s.LevelID, &s.BranchID, &s.IsActive, &s.EnrolledAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Student{}, shared.ErrNotFound
		}
		return Student{}, err
	}
	return s, nil
}

func (r *repository) List(ctx context.Context, schoolID int64, filters shared.ListFilters) ([]Student, int, error) {
	filters = filters.Normalize()
	args := []interface{}{schoolID}
	where := ` WHERE school_id = $1`
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (first_name ILIKE $` + n + ` OR last_name ILIKE $` + n + ` OR admission_number ILIKE $` + n + `)`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + studentColumns + ` FROM students` + where +
		` ORDER BY last_name, first_name LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var students []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Student, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	return scanStudent(row)
}

func (r *repository) Create(ctx context.Context, student Student) (Student, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO students (school_id, admission_number, first_name, last_name, email, level_id, branch_id, is_active, enrolled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, NOW(), NOW())
		RETURNING `+studentColumns,
		student.SchoolID, student.AdmissionNumber, student.FirstName, student.LastName,
		student.Email, student.LevelID, student.BranchID, student.EnrolledAt)
	created, err := scanStudent(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Student{}, shared.ErrDuplicate
		}
		return Student{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, student Student) (Student, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE students
		SET first_name = $2, last_name = $3, email = $4, level_id = $5, branch_id = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+studentColumns,
		id, student.FirstName, student.LastName, student.Email, student.LevelID, student.BranchID, student.IsActive)
	return scanStudent(row)
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE students SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Stats(ctx context.Context, schoolID int64) (Stats, error) {
	stats := Stats{SchoolID: schoolID}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM students WHERE school_id = $1`, schoolID).
		Scan(&stats.Total, &stats.Active)
	if err != nil {
		return Stats{}, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.name, COUNT(s.id)
		FROM levels l
		LEFT JOIN students s ON s.level_id = l.id AND s.is_active
		WHERE l.school_id = $1
		GROUP BY l.id, l.name
		ORDER BY l.rank, l.name`, schoolID)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var lc LevelCount
		if err := rows.Scan(&lc.LevelID, &lc.Level, &lc.Count); err != nil {
			return Stats{}, err
		}
		stats.ByLevel = append(stats.ByLevel, lc)
	}
	return stats, rows.Err()
}
