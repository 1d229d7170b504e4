package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sekolah-app/sekolah/internal/academics/sessions"
	"github.com/sekolah-app/sekolah/internal/academics/terms"
	"github.com/sekolah-app/sekolah/internal/audit"
	"github.com/sekolah-app/sekolah/internal/auth"
	"github.com/sekolah-app/sekolah/internal/masterdata/branches"
	"github.com/sekolah-app/sekolah/internal/masterdata/levels"
	"github.com/sekolah-app/sekolah/internal/observability"
	"github.com/sekolah-app/sekolah/internal/platform/cache"
	"github.com/sekolah-app/sekolah/internal/rbac"
	"github.com/sekolah-app/sekolah/internal/roles"
	"github.com/sekolah-app/sekolah/internal/schools"
	"github.com/sekolah-app/sekolah/internal/shared"
	"github.com/sekolah-app/sekolah/internal/students"
	"github.com/sekolah-app/sekolah/internal/users"
	"github.com/sekolah-app/sekolah/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AuthHandler        *auth.Handler
	SchoolsHandler     *schools.Handler
	LevelsHandler      *levels.Handler
	BranchesHandler    *branches.Handler
	StudentsHandler    *students.Handler
	SessionsHandler    *sessions.Handler
	TermsHandler       *terms.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *rbac.PermissionsHandler
	AuditHandler       *audit.Handler
	JobsHandler        *jobs.Handler
	RBACMiddleware     rbac.Middleware
	ResponseCache      *cache.ResponseCache
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with platform defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	m := params.RBACMiddleware

	r.Route("/api/v1", func(r chi.Router) {
		// credential endpoints sit in a tighter rate bucket
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(AuthRateLimiter(params.Config))
				params.AuthHandler.MountPublicRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(m.Authenticate)
				params.AuthHandler.MountProtectedRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(m.Authenticate)

			r.Route("/schools", func(r chi.Router) {
				r.Use(m.RequireAny(shared.PermSchoolsRead))
				params.SchoolsHandler.MountRoutes(r, m.RequireRole(rbac.RoleSystemAdmin))
			})

			r.Route("/levels", func(r chi.Router) {
				r.Use(m.RequireAny(shared.PermLevelsRead, shared.PermLevelsWrite))
				params.LevelsHandler.MountRoutes(r)
			})

			r.Route("/branches", func(r chi.Router) {
				r.Use(m.RequireAny(shared.PermBranchesRead, shared.PermBranchesWrite))
				params.BranchesHandler.MountRoutes(r)
			})

			r.Route("/students", func(r chi.Router) {
				r.Use(m.RequireAny(shared.PermStudentsRead, shared.PermStudentsWrite))
				if params.ResponseCache != nil {
					r.Use(params.ResponseCache.Middleware)
				}
				params.StudentsHandler.MountRoutes(r)
			})

			r.Route("/academic-sessions", func(r chi.Router) {
				r.Use(m.RequireAny(shared.PermSessionsRead, shared.PermSessionsWrite))
				params.SessionsHandler.MountRoutes(r)
			})

			r.Route("/terms", func(r chi.Router) {
				r.Use(m.RequireAny(shared.PermTermsRead, shared.PermTermsWrite))
				params.TermsHandler.MountRoutes(r)
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(m.RequireMinimumRole(rbac.RoleAdmin))
				r.Use(m.RequireAny(shared.PermUsersRead, shared.PermUsersWrite))
				params.UsersHandler.MountRoutes(r)
			})

			r.Route("/roles", func(r chi.Router) {
				r.Use(m.RequireMinimumRole(rbac.RoleAdmin))
				r.Use(m.RequireAny(shared.PermRolesRead, shared.PermRolesWrite))
				params.RolesHandler.MountRoutes(r)
			})

			r.Route("/permissions", func(r chi.Router) {
				r.Use(m.RequireAny(shared.PermPermissionsRead))
				params.PermissionsHandler.MountRoutes(r)
			})

			r.Route("/audit", func(r chi.Router) {
				r.Use(m.RequireMinimumRole(rbac.RoleAdmin))
				r.Use(m.RequireAny(shared.PermAuditRead))
				params.AuditHandler.MountRoutes(r)
			})

			if params.JobsHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Use(m.RequireRole(rbac.RoleSystemAdmin))
					params.JobsHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}
