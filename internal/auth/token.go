package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates the three claim shapes. All kinds share one signing
// mechanism, so the kind tag is what keeps them non-interchangeable: every
// verification entry point checks it explicitly after signature validation.
type TokenKind string

const (
	// KindAccess authorizes API requests and carries the permission snapshot.
	KindAccess TokenKind = "access"
	// KindRefresh only proves the right to mint a new access token.
	KindRefresh TokenKind = "refresh"
	// KindMfa proves "passed step 1" of an MFA login, nothing more.
	KindMfa TokenKind = "mfa_temp"
)

// AccessClaims is the claim set of an access token. Permissions are the
// flattened union of the role grants at issuance time; verification never
// consults the database, so staleness lasts until re-issuance.
type AccessClaims struct {
	jwt.RegisteredClaims
	Kind        TokenKind `json:"token_kind"`
	Email       string    `json:"email"`
	SchoolID    *int64    `json:"school_id,omitempty"`
	RoleIDs     []int64   `json:"role_ids"`
	RoleSlug    string    `json:"role_slug"`
	Permissions []string  `json:"permissions"`
}

// RefreshClaims is the claim set of a refresh token. The jti (RegisteredClaims.ID)
// is unique per issuance to support a future revocation denylist.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Kind  TokenKind `json:"token_kind"`
	Email string    `json:"email"`
}

// MfaClaims is the minimal claim set of an MFA temp token. It deliberately
// carries no roles or permissions.
type MfaClaims struct {
	jwt.RegisteredClaims
	Kind       TokenKind `json:"token_kind"`
	Email      string    `json:"email"`
	MfaPending bool      `json:"mfa_pending"`
}

func signClaims(claims jwt.Claims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parseClaims verifies the signature, then validity, then decodes into claims.
// Error precedence follows the decode contract: malformed before signature
// before expiry, and an unverified signature never gets its claims trusted.
func parseClaims(token string, secret []byte, claims jwt.Claims) error {
	if token == "" {
		return ErrTokenMalformed
	}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenMalformed
	}
}
