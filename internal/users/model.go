package users

import "time"

// User is the administrative view of an account. Password hashes never
// leave the repository layer.
type User struct {
	ID         int64     `json:"id"`
	SchoolID   *int64    `json:"school_id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	IsActive   bool      `json:"is_active"`
	MfaEnabled bool      `json:"mfa_enabled"`
	RoleIDs    []int64   `json:"role_ids"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewUser carries the fields needed to provision an account.
type NewUser struct {
	SchoolID *int64
	Email    string
	FullName string
	Password string
	RoleIDs  []int64
}
