package alerts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
	"github.com/atheneum-portal/atheneum-portal/internal/platform/httpx"
)

// Handler exposes the alert review endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    access.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate access.Middleware) *Handler {
	return &Handler{logger: logger, service: service, gate: gate}
}

// MountRoutes registers alert routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequirePrincipal)
		r.Use(h.gate.RequireCapability(access.CapViewReports))
		r.Get("/alerts", h.list)
		r.Post("/alerts/{alertID}/review", h.review)
	})
}

type alertResponse struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	ForumID   int64     `json:"forum_id,omitempty"`
	MessageID int64     `json:"message_id,omitempty"`
	UserID    int64     `json:"user_id,omitempty"`
	Detail    string    `json:"detail"`
	Reviewed  bool      `json:"reviewed"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	unreviewedOnly := r.URL.Query().Get("unreviewed") == "true"
	list, err := h.service.List(r.Context(), actor, unreviewedOnly)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]alertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, alertResponse{
			ID:        a.ID,
			Kind:      string(a.Kind),
			ForumID:   a.ForumID,
			MessageID: a.MessageID,
			UserID:    a.UserID,
			Detail:    a.Detail,
			Reviewed:  a.Reviewed,
			CreatedAt: a.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"alerts": out})
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "alertID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	if err := h.service.MarkReviewed(r.Context(), actor, id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"reviewed": true})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "alert not found")
	default:
		if _, ok := access.AsDenied(err); ok {
			access.WriteError(w, err)
			return
		}
		h.logger.Error("alerts handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
