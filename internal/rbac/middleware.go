package rbac

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/sekolah-app/sekolah/internal/auth"
	"github.com/sekolah-app/sekolah/internal/platform/httpx"
	"github.com/sekolah-app/sekolah/internal/shared"
)

// TokenVerifier verifies an access token and returns its claims. Implemented
// by auth.TokenIssuer.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.AccessClaims, error)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Verifier TokenVerifier
	Logger   *slog.Logger
}

// Authenticate extracts the bearer token, verifies it as an access token and
// stores the resulting Principal in the request context. Any other token
// kind, including an MFA temp token, is rejected here.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		claims, err := m.Verifier.VerifyAccessToken(token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("access token rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		userID, err := auth.SubjectID(claims)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		principal := &shared.Principal{
			UserID:      userID,
			Email:       claims.Email,
			SchoolID:    claims.SchoolID,
			RoleIDs:     claims.RoleIDs,
			RoleSlug:    claims.RoleSlug,
			Permissions: claims.Permissions,
		}
		ctx := shared.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAny ensures the principal has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			if !HasAnyPermission(principal, perms...) {
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAll ensures the principal has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			for _, perm := range perms {
				if !HasPermission(principal, perm) {
					httpx.RespondError(w, shared.ErrForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole ensures the principal's role label equals slug exactly.
func (m Middleware) RequireRole(slug string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := CheckRole(shared.PrincipalFromContext(r.Context()), slug); err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole ensures the principal's role is one of the allowed slugs.
func (m Middleware) RequireAnyRole(slugs ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := CheckAnyRole(shared.PrincipalFromContext(r.Context()), slugs); err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMinimumRole ensures the principal ranks at or above slug in the
// fixed role hierarchy.
func (m Middleware) RequireMinimumRole(slug string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			if err := CheckRoleHierarchy(principal.RoleSlug, slug); err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
