package auth

import (
	"fmt"
	"time"

	"github.com/sekolah-app/sekolah/internal/shared"
)

// User represents an authenticated user account including its MFA settings.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	SchoolID     *int64
	MfaEnabled   bool
	MfaSecret    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecoveryCode is a stored single-use MFA recovery code hash.
type RecoveryCode struct {
	ID       int64
	UserID   int64
	CodeHash string
	UsedAt   *time.Time
}

// Authentication failure taxonomy. Every member wraps shared.ErrUnauthorized
// so the HTTP layer maps them all to one indistinguishable 401 body while
// callers and logs can still tell them apart.
var (
	ErrInvalidCredentials     = fmt.Errorf("invalid credentials: %w", shared.ErrUnauthorized)
	ErrTokenMalformed         = fmt.Errorf("token malformed: %w", shared.ErrUnauthorized)
	ErrSignatureInvalid       = fmt.Errorf("token signature invalid: %w", shared.ErrUnauthorized)
	ErrTokenExpired           = fmt.Errorf("token expired: %w", shared.ErrUnauthorized)
	ErrWrongTokenKind         = fmt.Errorf("wrong token kind: %w", shared.ErrUnauthorized)
	ErrMfaCodeInvalid         = fmt.Errorf("mfa code invalid: %w", shared.ErrUnauthorized)
	ErrMfaRecoveryCodeInvalid = fmt.Errorf("mfa recovery code invalid: %w", shared.ErrUnauthorized)
)

// ErrInvalidHashFormat indicates a corrupted stored password hash. It is not
// an authentication outcome: operators must see it even though the client
// still receives the generic credentials failure.
var ErrInvalidHashFormat = fmt.Errorf("invalid password hash format")

// LoginStatus tags the outcome of a login attempt.
type LoginStatus string

const (
	// StatusAuthenticated means a full token pair was issued.
	StatusAuthenticated LoginStatus = "authenticated"
	// StatusMfaRequired means credentials passed but a second factor is pending.
	StatusMfaRequired LoginStatus = "mfa_required"
)

// TokenPair bundles the access and refresh tokens issued together.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// LoginResult is the typed outcome the HTTP layer maps onto responses.
// Rejections are reported as errors, never as a LoginResult.
type LoginResult struct {
	Status    LoginStatus
	Tokens    *TokenPair
	TempToken string
	Principal *shared.Principal
}
