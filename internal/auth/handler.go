package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
	"github.com/atheneum-portal/atheneum-portal/internal/platform/httpx"
	"github.com/atheneum-portal/atheneum-portal/internal/shared"
)

// AuditLog records successful logins.
type AuditLog interface {
	RecordLogin(ctx context.Context, userID int64, ip string) error
}

// Handler exposes login and logout.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	audit    AuditLog
	validate *validator.Validate
}

// NewHandler builds a Handler instance. The audit log may be nil.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, audit AuditLog) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		audit:    audit,
		validate: validator.New(),
	}
}

// MountRoutes registers auth routes. Login gets a tighter rate limit than
// the rest of the API.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(10, time.Minute))
		r.Post("/login", h.login)
	})
	r.Post("/logout", h.logout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrBadCredentials):
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		default:
			if _, ok := access.AsDenied(err); ok {
				access.WriteError(w, err)
				return
			}
			h.logger.Error("login", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}

	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.SetUser(strconv.FormatInt(user.ID, 10))
	}
	if h.audit != nil {
		if err := h.audit.RecordLogin(r.Context(), user.ID, r.RemoteAddr); err != nil {
			h.logger.Warn("login audit", slog.Any("error", err))
		}
	}
	h.logger.Info("login", slog.Int64("user", user.ID))
	httpx.JSON(w, http.StatusOK, loginResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessions.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}
