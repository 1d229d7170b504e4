package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sekolah-app/sekolah/internal/platform/httpx"
	"github.com/sekolah-app/sekolah/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountPublicRoutes registers the unauthenticated auth routes.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/mfa/verify", h.handleMfaVerify)
	r.Post("/refresh", h.handleRefresh)
}

// MountProtectedRoutes registers routes that require a verified access token.
// The caller wraps them with the rbac authentication middleware.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Post("/mfa/setup", h.handleMfaSetup)
	r.Post("/mfa/activate", h.handleMfaActivate)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type mfaVerifyRequest struct {
	TempToken string `json:"temp_token" validate:"required"`
	Code      string `json:"code" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type mfaActivateRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type principalResponse struct {
	UserID      int64    `json:"user_id"`
	Email       string   `json:"email"`
	SchoolID    *int64   `json:"school_id,omitempty"`
	RoleIDs     []int64  `json:"role_ids"`
	RoleSlug    string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type authenticatedResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	TokenType    string            `json:"token_type"`
	Principal    principalResponse `json:"principal"`
}

type mfaRequiredResponse struct {
	MfaRequired bool   `json:"mfa_required"`
	TempToken   string `json:"temp_token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAuthError(w, r, "login", err)
		return
	}
	h.respondLoginResult(w, result)
}

func (h *Handler) handleMfaVerify(w http.ResponseWriter, r *http.Request) {
	var req mfaVerifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.VerifyMfa(r.Context(), req.TempToken, req.Code)
	if err != nil {
		h.respondAuthError(w, r, "mfa verify", err)
		return
	}
	h.respondLoginResult(w, result)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.respondAuthError(w, r, "refresh", err)
		return
	}
	h.respondLoginResult(w, result)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, toPrincipalResponse(principal))
}

func (h *Handler) handleMfaSetup(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	enrolment, err := h.service.StartMfaEnrolment(r.Context(), principal.UserID)
	if err != nil {
		h.logger.Error("mfa setup", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, enrolment)
}

func (h *Handler) handleMfaActivate(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var req mfaActivateRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.ActivateMfa(r.Context(), principal.UserID, req.Code); err != nil {
		h.respondAuthError(w, r, "mfa activate", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"mfa_enabled": true})
}

// decode parses and validates the request body; a malformed shape yields 422
// before any credential is inspected.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "invalid request body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "invalid request body")
		return false
	}
	return true
}

func (h *Handler) respondLoginResult(w http.ResponseWriter, result *LoginResult) {
	switch result.Status {
	case StatusMfaRequired:
		httpx.JSON(w, http.StatusOK, mfaRequiredResponse{MfaRequired: true, TempToken: result.TempToken})
	case StatusAuthenticated:
		httpx.JSON(w, http.StatusOK, authenticatedResponse{
			AccessToken:  result.Tokens.AccessToken,
			RefreshToken: result.Tokens.RefreshToken,
			TokenType:    result.Tokens.TokenType,
			Principal:    toPrincipalResponse(result.Principal),
		})
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) respondAuthError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if h.logger != nil {
		h.logger.Warn(op+" rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func toPrincipalResponse(p *shared.Principal) principalResponse {
	return principalResponse{
		UserID:      p.UserID,
		Email:       p.Email,
		SchoolID:    p.SchoolID,
		RoleIDs:     p.RoleIDs,
		RoleSlug:    p.RoleSlug,
		Permissions: p.Permissions,
	}
}
