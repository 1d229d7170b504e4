package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MfaTokenTTL is fixed and independent of the configured access/refresh
// expiries: the temp token only bridges the two MFA steps.
const MfaTokenTTL = 10 * time.Minute

// TokenConfig carries the signing secret and expiries. It is passed in
// explicitly; the issuer never reads ambient state.
type TokenConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// TokenIssuer mints and verifies the three token kinds.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// AccessTokenInput is the principal snapshot baked into an access token.
type AccessTokenInput struct {
	UserID      int64
	Email       string
	SchoolID    *int64
	RoleIDs     []int64
	RoleSlug    string
	Permissions []string
}

// IssueAccessToken signs an access token embedding the permission snapshot.
func (i *TokenIssuer) IssueAccessToken(in AccessTokenInput) (string, error) {
	now := i.now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(in.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.AccessTokenExpiry)),
		},
		Kind:        KindAccess,
		Email:       in.Email,
		SchoolID:    in.SchoolID,
		RoleIDs:     in.RoleIDs,
		RoleSlug:    in.RoleSlug,
		Permissions: in.Permissions,
	}
	return signClaims(claims, []byte(i.cfg.Secret))
}

// IssueRefreshToken signs a refresh token with a freshly minted jti. Each
// issuance gets its own jti, so concurrent logins never share one.
func (i *TokenIssuer) IssueRefreshToken(userID int64, email string) (string, error) {
	now := i.now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.RefreshTokenExpiry)),
		},
		Kind:  KindRefresh,
		Email: email,
	}
	return signClaims(claims, []byte(i.cfg.Secret))
}

// IssueMfaToken signs the short-lived temp token handed out after step 1 of
// an MFA login.
func (i *TokenIssuer) IssueMfaToken(userID int64, email string) (string, error) {
	now := i.now()
	claims := MfaClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(MfaTokenTTL)),
		},
		Kind:       KindMfa,
		Email:      email,
		MfaPending: true,
	}
	return signClaims(claims, []byte(i.cfg.Secret))
}

// VerifyAccessToken decodes and kind-checks an access token.
func (i *TokenIssuer) VerifyAccessToken(token string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := parseClaims(token, []byte(i.cfg.Secret), &claims); err != nil {
		return nil, err
	}
	if claims.Kind != KindAccess {
		return nil, ErrWrongTokenKind
	}
	return &claims, nil
}

// VerifyRefreshToken decodes and kind-checks a refresh token.
func (i *TokenIssuer) VerifyRefreshToken(token string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := parseClaims(token, []byte(i.cfg.Secret), &claims); err != nil {
		return nil, err
	}
	if claims.Kind != KindRefresh {
		return nil, ErrWrongTokenKind
	}
	return &claims, nil
}

// VerifyMfaToken decodes and kind-checks an MFA temp token.
func (i *TokenIssuer) VerifyMfaToken(token string) (*MfaClaims, error) {
	var claims MfaClaims
	if err := parseClaims(token, []byte(i.cfg.Secret), &claims); err != nil {
		return nil, err
	}
	if claims.Kind != KindMfa || !claims.MfaPending {
		return nil, ErrWrongTokenKind
	}
	return &claims, nil
}

// SubjectID parses the numeric user ID out of a token subject.
func SubjectID(claims jwt.Claims) (int64, error) {
	subject, err := claims.GetSubject()
	if err != nil {
		return 0, ErrTokenMalformed
	}
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, ErrTokenMalformed
	}
	return id, nil
}
