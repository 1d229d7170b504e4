package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolah-app/sekolah/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	SetMfa(ctx context.Context, userID int64, enabled bool, secret string) error
	ReplaceRecoveryCodes(ctx context.Context, userID int64, hashes []string) error
	ListUnusedRecoveryCodes(ctx context.Context, userID int64) ([]RecoveryCode, error)
	ConsumeRecoveryCode(ctx context.Context, codeID int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, name, password_hash, is_active, school_id, mfa_enabled, COALESCE(mfa_secret, ''), created_at, updated_at`

func (r *PGRepository) scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsActive,
		&user.SchoolID, &user.MfaEnabled, &user.MfaSecret, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return r.scanUser(row)
}

// FindByID fetches a user by ID.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.scanUser(row)
}

// SetMfa updates the MFA flag and secret for a user.
func (r *PGRepository) SetMfa(ctx context.Context, userID int64, enabled bool, secret string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET mfa_enabled = $2, mfa_secret = $3, updated_at = NOW() WHERE id = $1`,
		userID, enabled, secret)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReplaceRecoveryCodes drops any existing codes and stores the new hashes.
func (r *PGRepository) ReplaceRecoveryCodes(ctx context.Context, userID int64, hashes []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM mfa_recovery_codes WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for _, hash := range hashes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO mfa_recovery_codes (user_id, code_hash, created_at) VALUES ($1, $2, NOW())`,
			userID, hash); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListUnusedRecoveryCodes returns the codes still available for a user.
func (r *PGRepository) ListUnusedRecoveryCodes(ctx context.Context, userID int64) ([]RecoveryCode, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, code_hash, used_at FROM mfa_recovery_codes WHERE user_id = $1 AND used_at IS NULL`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []RecoveryCode
	for rows.Next() {
		var code RecoveryCode
		if err := rows.Scan(&code.ID, &code.UserID, &code.CodeHash, &code.UsedAt); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// ConsumeRecoveryCode marks a code as used. A code already consumed is
// reported as not found so reuse fails like an unknown code.
func (r *PGRepository) ConsumeRecoveryCode(ctx context.Context, codeID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE mfa_recovery_codes SET used_at = $2 WHERE id = $1 AND used_at IS NULL`,
		codeID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
