package auth

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/sekolah-app/sekolah/internal/shared"
)

type memoryAuthRepo struct {
	users      map[int64]*User
	byEmail    map[string]int64
	recovery   map[int64][]RecoveryCode
	nextCodeID int64
}

func newMemoryAuthRepo(users ...*User) *memoryAuthRepo {
	r := &memoryAuthRepo{
		users:    make(map[int64]*User),
		byEmail:  make(map[string]int64),
		recovery: make(map[int64][]RecoveryCode),
	}
	for _, u := range users {
		r.users[u.ID] = u
		r.byEmail[u.Email] = u.ID
	}
	return r
}

func (r *memoryAuthRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	id, ok := r.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return r.users[id], nil
}

func (r *memoryAuthRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryAuthRepo) SetMfa(ctx context.Context, userID int64, enabled bool, secret string) error {
	u, ok := r.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	u.MfaEnabled = enabled
	u.MfaSecret = secret
	return nil
}

func (r *memoryAuthRepo) ReplaceRecoveryCodes(ctx context.Context, userID int64, hashes []string) error {
	codes := make([]RecoveryCode, 0, len(hashes))
	for _, h := range hashes {
		r.nextCodeID++
		codes = append(codes, RecoveryCode{ID: r.nextCodeID, UserID: userID, CodeHash: h})
	}
	r.recovery[userID] = codes
	return nil
}

func (r *memoryAuthRepo) ListUnusedRecoveryCodes(ctx context.Context, userID int64) ([]RecoveryCode, error) {
	var unused []RecoveryCode
	for _, c := range r.recovery[userID] {
		if c.UsedAt == nil {
			unused = append(unused, c)
		}
	}
	return unused, nil
}

func (r *memoryAuthRepo) ConsumeRecoveryCode(ctx context.Context, codeID int64) error {
	for userID, codes := range r.recovery {
		for i, c := range codes {
			if c.ID == codeID {
				if c.UsedAt != nil {
					return shared.ErrNotFound
				}
				now := time.Now()
				r.recovery[userID][i].UsedAt = &now
				return nil
			}
		}
	}
	return shared.ErrNotFound
}

type stubResolver struct {
	principal *shared.Principal
}

func (s *stubResolver) ResolvePrincipal(ctx context.Context, userID int64) (*shared.Principal, error) {
	p := *s.principal
	p.UserID = userID
	return &p, nil
}

func newTestService(t *testing.T, users ...*User) (*Service, *memoryAuthRepo, *TokenIssuer) {
	t.Helper()
	repo := newMemoryAuthRepo(users...)
	issuer := testIssuer("service-secret")
	resolver := &stubResolver{principal: &shared.Principal{
		RoleSlug:    "teacher",
		RoleIDs:     []int64{3},
		Permissions: []string{"students:read"},
	}}
	return NewService(repo, resolver, issuer, nil, nil), repo, issuer
}

func activeUser(t *testing.T, id int64, email, password string) *User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return &User{ID: id, Email: email, PasswordHash: hash, IsActive: true}
}

func TestLoginSuccessIssuesTokenPair(t *testing.T) {
	user := activeUser(t, 1, "guru@sekolah.test", "rahasia-123")
	svc, _, issuer := newTestService(t, user)

	result, err := svc.Login(context.Background(), "guru@sekolah.test", "rahasia-123")
	require.NoError(t, err)
	require.Equal(t, StatusAuthenticated, result.Status)
	require.NotNil(t, result.Tokens)
	require.Equal(t, "Bearer", result.Tokens.TokenType)

	claims, err := issuer.VerifyAccessToken(result.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "teacher", claims.RoleSlug)

	_, err = issuer.VerifyRefreshToken(result.Tokens.RefreshToken)
	require.NoError(t, err)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	user := activeUser(t, 1, "guru@sekolah.test", "rahasia-123")
	inactive := activeUser(t, 2, "nonaktif@sekolah.test", "rahasia-123")
	inactive.IsActive = false
	svc, _, _ := newTestService(t, user, inactive)

	cases := map[string][2]string{
		"unknown email":    {"tidak-ada@sekolah.test", "rahasia-123"},
		"wrong password":   {"guru@sekolah.test", "salah"},
		"inactive account": {"nonaktif@sekolah.test", "rahasia-123"},
	}
	for name, c := range cases {
		_, err := svc.Login(context.Background(), c[0], c[1])
		require.ErrorIs(t, err, ErrInvalidCredentials, name)
	}
}

func TestLoginWithCorruptedHashFailsLikeBadCredentials(t *testing.T) {
	user := &User{ID: 1, Email: "guru@sekolah.test", PasswordHash: "corrupted", IsActive: true}
	svc, _, _ := newTestService(t, user)

	_, err := svc.Login(context.Background(), "guru@sekolah.test", "anything")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginWithMfaReturnsTempToken(t *testing.T) {
	user := activeUser(t, 1, "guru@sekolah.test", "rahasia-123")
	user.MfaEnabled = true
	user.MfaSecret = "JBSWY3DPEHPK3PXP"
	svc, _, issuer := newTestService(t, user)

	result, err := svc.Login(context.Background(), "guru@sekolah.test", "rahasia-123")
	require.NoError(t, err)
	require.Equal(t, StatusMfaRequired, result.Status)
	require.Nil(t, result.Tokens)
	require.NotEmpty(t, result.TempToken)

	// The temp token must never pass as an access token.
	_, err = issuer.VerifyAccessToken(result.TempToken)
	require.ErrorIs(t, err, ErrWrongTokenKind)
}

func TestVerifyMfaWithTOTPCompletesLogin(t *testing.T) {
	user := activeUser(t, 1, "guru@sekolah.test", "rahasia-123")
	user.MfaEnabled = true
	user.MfaSecret = "JBSWY3DPEHPK3PXP"
	svc, _, _ := newTestService(t, user)

	result, err := svc.Login(context.Background(), "guru@sekolah.test", "rahasia-123")
	require.NoError(t, err)

	code, err := totp.GenerateCode(user.MfaSecret, time.Now())
	require.NoError(t, err)

	final, err := svc.VerifyMfa(context.Background(), result.TempToken, code)
	require.NoError(t, err)
	require.Equal(t, StatusAuthenticated, final.Status)
	require.NotNil(t, final.Tokens)
}

func TestVerifyMfaRejectsWrongCode(t *testing.T) {
	user := activeUser(t, 1, "guru@sekolah.test", "rahasia-123")
	user.MfaEnabled = true
	user.MfaSecret = "JBSWY3DPEHPK3PXP"
	svc, _, _ := newTestService(t, user)

	result, err := svc.Login(context.Background(), "guru@sekolah.test", "rahasia-123")
	require.NoError(t, err)

	_, err = svc.VerifyMfa(context.Background(), result.TempToken, "000000")
	require.ErrorIs(t, err, ErrMfaCodeInvalid)
}

func TestVerifyMfaRejectsAccessTokenAsTempToken(t *testing.T) {
	user := activeUser(t, 1, "guru@sekolah.test", "rahasia-123")
	svc, _, issuer := newTestService(t, user)

	access, err := issuer.IssueAccessToken(AccessTokenInput{UserID: 1, Email: user.Email})
	require.NoError(t, err)

	_, err = svc.VerifyMfa(context.Background(), access, "123456")
	require.ErrorIs(t, err, ErrWrongTokenKind)
}

func TestRecoveryCodeIsSingleUse(t *testing.T) {
	user := activeUser(t, 1, "guru@sekolah.test", "rahasia-123")
	svc, repo, _ := newTestService(t, user)

	enrolment, err := svc.StartMfaEnrolment(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, enrolment.RecoveryCodes, 10)

	code, err := totp.GenerateCode(enrolment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.ActivateMfa(context.Background(), user.ID, code))
	require.True(t, repo.users[user.ID].MfaEnabled)

	login, err := svc.Login(context.Background(), "guru@sekolah.test", "rahasia-123")
	require.NoError(t, err)
	require.Equal(t, StatusMfaRequired, login.Status)

	recovery := enrolment.RecoveryCodes[0]
	final, err := svc.VerifyMfa(context.Background(), login.TempToken, recovery)
	require.NoError(t, err)
	require.Equal(t, StatusAuthenticated, final.Status)

	// Replaying the same code must fail exactly like an unknown code.
	again, err := svc.Login(context.Background(), "guru@sekolah.test", "rahasia-123")
	require.NoError(t, err)
	_, err = svc.VerifyMfa(context.Background(), again.TempToken, recovery)
	require.ErrorIs(t, err, ErrMfaRecoveryCodeInvalid)
}

func TestVerifyMfaRejectsUnrecognisedCodeShape(t *testing.T) {
	user := activeUser(t, 1, "guru@sekolah.test", "rahasia-123")
	user.MfaEnabled = true
	user.MfaSecret = "JBSWY3DPEHPK3PXP"
	svc, _, _ := newTestService(t, user)

	login, err := svc.Login(context.Background(), "guru@sekolah.test", "rahasia-123")
	require.NoError(t, err)

	_, err = svc.VerifyMfa(context.Background(), login.TempToken, "not a code")
	require.ErrorIs(t, err, shared.ErrValidationFailed)
}

func TestRefreshReResolvesRoles(t *testing.T) {
	user := activeUser(t, 1, "guru@sekolah.test", "rahasia-123")
	repo := newMemoryAuthRepo(user)
	issuer := testIssuer("service-secret")
	resolver := &stubResolver{principal: &shared.Principal{RoleSlug: "teacher", Permissions: []string{"students:read"}}}
	svc := NewService(repo, resolver, issuer, nil, nil)

	login, err := svc.Login(context.Background(), "guru@sekolah.test", "rahasia-123")
	require.NoError(t, err)

	// Permissions change between issuance and refresh.
	resolver.principal = &shared.Principal{RoleSlug: "admin", Permissions: []string{"students:read", "students:write"}}

	refreshed, err := svc.Refresh(context.Background(), login.Tokens.RefreshToken)
	require.NoError(t, err)

	claims, err := issuer.VerifyAccessToken(refreshed.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.RoleSlug)
	require.Contains(t, claims.Permissions, "students:write")
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	user := activeUser(t, 1, "guru@sekolah.test", "rahasia-123")
	svc, _, issuer := newTestService(t, user)

	access, err := issuer.IssueAccessToken(AccessTokenInput{UserID: 1, Email: user.Email})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), access)
	require.ErrorIs(t, err, ErrWrongTokenKind)
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	user := activeUser(t, 1, "guru@sekolah.test", "rahasia-123")
	svc, repo, _ := newTestService(t, user)

	login, err := svc.Login(context.Background(), "guru@sekolah.test", "rahasia-123")
	require.NoError(t, err)

	repo.users[user.ID].IsActive = false

	_, err = svc.Refresh(context.Background(), login.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
