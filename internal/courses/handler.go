package courses

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
	"github.com/atheneum-portal/atheneum-portal/internal/platform/httpx"
)

// Handler exposes the course catalogue endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	gate     access.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate access.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		gate:     gate,
	}
}

// MountRoutes registers catalogue routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequirePrincipal)
		r.Get("/departments", h.departments)
		r.Get("/courses", h.list)
		r.Get("/courses/{courseID}", h.get)

		r.Group(func(r chi.Router) {
			r.Use(h.gate.RequireCollection(access.ActionCreate, access.KindCourse))
			r.Post("/courses", h.create)
		})
		r.Put("/courses/{courseID}", h.update)
		r.Delete("/courses/{courseID}", h.delete)
	})
}

type departmentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) departments(w http.ResponseWriter, r *http.Request) {
	out := make([]departmentResponse, 0, len(Departments()))
	for _, d := range Departments() {
		out = append(out, departmentResponse{ID: string(d), Name: d.DisplayName()})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"departments": out})
}

type courseResponse struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Department   string    `json:"department"`
	ProfessorID  int64     `json:"professor_id"`
	Semester     int       `json:"semester"`
	IsActive     bool      `json:"is_active"`
	ForumEnabled bool      `json:"forum_enabled"`
	CreatedAt    time.Time `json:"created_at"`
}

func toResponse(c Course) courseResponse {
	return courseResponse{
		ID:           c.ID,
		Code:         c.Code,
		Name:         c.Name,
		Description:  c.Description,
		Department:   string(c.Department),
		ProfessorID:  c.ProfessorID,
		Semester:     c.Semester,
		IsActive:     c.IsActive,
		ForumEnabled: c.ForumEnabled,
		CreatedAt:    c.CreatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	list, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]courseResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toResponse(c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"courses": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	course, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(course))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	course, err := h.service.Create(r.Context(), actor, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(course))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var input UpdateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	course, err := h.service.Update(r.Context(), actor, id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(course))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "courseID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "course not found")
	case errors.Is(err, ErrCodeTaken):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "course code already registered")
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		if _, ok := access.AsDenied(err); ok {
			access.WriteError(w, err)
			return
		}
		h.logger.Error("courses handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
