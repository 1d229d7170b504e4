package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sekolah-app/sekolah/internal/auth"
	"github.com/sekolah-app/sekolah/internal/shared"
)

func newGuardedRouter(t *testing.T) (http.Handler, *auth.TokenIssuer) {
	t.Helper()
	issuer := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:             "middleware-secret",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
	})
	m := Middleware{Verifier: issuer}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(m.Authenticate)
		r.With(m.RequireAny(shared.PermStudentsRead)).Get("/students", ok)
		r.With(m.RequireMinimumRole(RoleAdmin)).Get("/admin-only", ok)
		r.With(m.RequireRole(RoleSystemAdmin)).Get("/system-only", ok)
	})
	return r, issuer
}

func accessToken(t *testing.T, issuer *auth.TokenIssuer, slug string, perms ...string) string {
	t.Helper()
	schoolID := int64(1)
	token, err := issuer.IssueAccessToken(auth.AccessTokenInput{
		UserID:      1,
		Email:       "guru@sekolah.test",
		SchoolID:    &schoolID,
		RoleSlug:    slug,
		Permissions: perms,
	})
	require.NoError(t, err)
	return token
}

func doGet(router http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestAuthenticateRejectsMissingAndMangledTokens(t *testing.T) {
	router, issuer := newGuardedRouter(t)

	require.Equal(t, http.StatusUnauthorized, doGet(router, "/students", "").Code)
	require.Equal(t, http.StatusUnauthorized, doGet(router, "/students", "garbage").Code)

	token := accessToken(t, issuer, RoleTeacher, shared.PermStudentsRead)
	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	req.Header.Set("Authorization", "Token "+token)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthenticateRejectsNonAccessKinds(t *testing.T) {
	router, issuer := newGuardedRouter(t)

	refresh, err := issuer.IssueRefreshToken(1, "guru@sekolah.test")
	require.NoError(t, err)
	mfa, err := issuer.IssueMfaToken(1, "guru@sekolah.test")
	require.NoError(t, err)

	require.Equal(t, http.StatusUnauthorized, doGet(router, "/students", refresh).Code)
	require.Equal(t, http.StatusUnauthorized, doGet(router, "/students", mfa).Code)
}

func TestPermissionGuard(t *testing.T) {
	router, issuer := newGuardedRouter(t)

	granted := accessToken(t, issuer, RoleTeacher, shared.PermStudentsRead)
	require.Equal(t, http.StatusOK, doGet(router, "/students", granted).Code)

	denied := accessToken(t, issuer, RoleTeacher, shared.PermLevelsRead)
	require.Equal(t, http.StatusForbidden, doGet(router, "/students", denied).Code)
}

func TestMinimumRoleGuard(t *testing.T) {
	router, issuer := newGuardedRouter(t)

	require.Equal(t, http.StatusOK, doGet(router, "/admin-only", accessToken(t, issuer, RoleAdmin)).Code)
	require.Equal(t, http.StatusOK, doGet(router, "/admin-only", accessToken(t, issuer, RoleSystemAdmin)).Code)
	require.Equal(t, http.StatusForbidden, doGet(router, "/admin-only", accessToken(t, issuer, RoleTeacher)).Code)
	require.Equal(t, http.StatusForbidden, doGet(router, "/admin-only", accessToken(t, issuer, "librarian")).Code)
}

func TestExactRoleGuard(t *testing.T) {
	router, issuer := newGuardedRouter(t)

	require.Equal(t, http.StatusOK, doGet(router, "/system-only", accessToken(t, issuer, RoleSystemAdmin)).Code)
	// exact match: ranking above is not enough when the guard wants one slug
	require.Equal(t, http.StatusForbidden, doGet(router, "/system-only", accessToken(t, issuer, RoleAdmin)).Code)
}
