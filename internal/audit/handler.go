package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sekolah-app/sekolah/internal/platform/httpx"
	"github.com/sekolah-app/sekolah/internal/shared"
)

// Handler exposes the audit timeline to administrators.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	schoolID, err := shared.EffectiveSchoolID(principal, r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	q := r.URL.Query()
	actorID, err := ParseID(q.Get("actor_id"))
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "actor_id must be numeric")
		return
	}
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	filters := TimelineFilters{
		SchoolID: schoolID,
		ActorID:  actorID,
		Entity:   q.Get("entity"),
		Action:   q.Get("action"),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := q.Get("from"); raw != "" {
		if filters.From, err = time.Parse("2006-01-02", raw); err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "from must be YYYY-MM-DD")
			return
		}
	}
	if raw := q.Get("to"); raw != "" {
		if filters.To, err = time.Parse("2006-01-02", raw); err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "to must be YYYY-MM-DD")
			return
		}
	}

	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
