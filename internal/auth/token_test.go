package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sekolah-app/sekolah/internal/shared"
)

func testIssuer(secret string) *TokenIssuer {
	return NewTokenIssuer(TokenConfig{
		Secret:             secret,
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 720 * time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := testIssuer("test-secret")
	schoolID := int64(7)

	token, err := issuer.IssueAccessToken(AccessTokenInput{
		UserID:      42,
		Email:       "guru@sekolah.test",
		SchoolID:    &schoolID,
		RoleIDs:     []int64{3},
		RoleSlug:    "teacher",
		Permissions: []string{"students:read"},
	})
	require.NoError(t, err)

	claims, err := issuer.VerifyAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "guru@sekolah.test", claims.Email)
	require.Equal(t, "teacher", claims.RoleSlug)
	require.Equal(t, []string{"students:read"}, claims.Permissions)
	require.NotNil(t, claims.SchoolID)
	require.Equal(t, int64(7), *claims.SchoolID)

	id, err := SubjectID(claims)
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := testIssuer("secret-a").IssueAccessToken(AccessTokenInput{UserID: 1, Email: "a@b.test"})
	require.NoError(t, err)

	_, err = testIssuer("secret-b").VerifyAccessToken(token)
	require.ErrorIs(t, err, ErrSignatureInvalid)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer(TokenConfig{
		Secret:             "test-secret",
		AccessTokenExpiry:  -time.Minute,
		RefreshTokenExpiry: -time.Minute,
	})
	token, err := issuer.IssueAccessToken(AccessTokenInput{UserID: 1, Email: "a@b.test"})
	require.NoError(t, err)

	_, err = issuer.VerifyAccessToken(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	issuer := testIssuer("test-secret")

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := issuer.VerifyAccessToken(token)
		require.ErrorIs(t, err, ErrTokenMalformed, "token %q", token)
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	issuer := testIssuer("test-secret")

	refresh, err := issuer.IssueRefreshToken(1, "a@b.test")
	require.NoError(t, err)
	mfa, err := issuer.IssueMfaToken(1, "a@b.test")
	require.NoError(t, err)
	access, err := issuer.IssueAccessToken(AccessTokenInput{UserID: 1, Email: "a@b.test"})
	require.NoError(t, err)

	_, err = issuer.VerifyAccessToken(refresh)
	require.ErrorIs(t, err, ErrWrongTokenKind)
	_, err = issuer.VerifyAccessToken(mfa)
	require.ErrorIs(t, err, ErrWrongTokenKind)
	_, err = issuer.VerifyRefreshToken(access)
	require.ErrorIs(t, err, ErrWrongTokenKind)
	_, err = issuer.VerifyRefreshToken(mfa)
	require.ErrorIs(t, err, ErrWrongTokenKind)
	_, err = issuer.VerifyMfaToken(access)
	require.ErrorIs(t, err, ErrWrongTokenKind)
	_, err = issuer.VerifyMfaToken(refresh)
	require.ErrorIs(t, err, ErrWrongTokenKind)
}

func TestRefreshTokensCarryUniqueIDs(t *testing.T) {
	issuer := testIssuer("test-secret")

	first, err := issuer.IssueRefreshToken(1, "a@b.test")
	require.NoError(t, err)
	second, err := issuer.IssueRefreshToken(1, "a@b.test")
	require.NoError(t, err)

	firstClaims, err := issuer.VerifyRefreshToken(first)
	require.NoError(t, err)
	secondClaims, err := issuer.VerifyRefreshToken(second)
	require.NoError(t, err)
	require.NotEqual(t, firstClaims.ID, secondClaims.ID)
}
