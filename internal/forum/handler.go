package forum

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
	"github.com/atheneum-portal/atheneum-portal/internal/courses"
	"github.com/atheneum-portal/atheneum-portal/internal/platform/httpx"
	"github.com/atheneum-portal/atheneum-portal/internal/shared"
)

// Handler exposes the discussion-board endpoints.
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

// MountRoutes registers forum routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequirePrincipal)
		r.Post("/courses/{courseID}/forum", h.open)
		r.Get("/courses/{courseID}/forum", h.forCourse)
		r.Post("/forums/{forumID}/activate", h.setActive(true))
		r.Post("/forums/{forumID}/deactivate", h.setActive(false))

		r.Get("/forums/{forumID}/messages", h.messages)
		r.Post("/forums/{forumID}/messages", h.post)
		r.Put("/messages/{messageID}", h.edit)
		r.Delete("/messages/{messageID}", h.delete)
		r.Post("/messages/{messageID}/pin", h.pin(true))
		r.Post("/messages/{messageID}/unpin", h.pin(false))
		r.Post("/messages/{messageID}/like", h.like(true))
		r.Delete("/messages/{messageID}/like", h.like(false))
	})
}

type forumResponse struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"course_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type messageResponse struct {
	ID         int64     `json:"id"`
	ForumID    int64     `json:"forum_id"`
	AuthorID   int64     `json:"author_id,omitempty"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	ReplyTo    *int64    `json:"reply_to,omitempty"`
	Pinned     bool      `json:"pinned"`
	Edited     bool      `json:"edited"`
	Deleted    bool      `json:"deleted"`
	LikeCount  int       `json:"like_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func toForumResponse(f Forum) forumResponse {
	return forumResponse{ID: f.ID, CourseID: f.CourseID, IsActive: f.IsActive, CreatedAt: f.CreatedAt}
}

// toMessageResponse renders tombstones with a placeholder body so clients
// never see leftover content of a removed post.
func toMessageResponse(m Message) messageResponse {
	out := messageResponse{
		ID:         m.ID,
		ForumID:    m.ForumID,
		AuthorID:   m.AuthorID,
		AuthorName: m.AuthorName,
		Content:    m.Content,
		ReplyTo:    m.ReplyTo,
		Pinned:     m.Pinned,
		Edited:     m.Edited,
		Deleted:    m.IsDeleted,
		LikeCount:  m.LikeCount,
		CreatedAt:  m.CreatedAt,
	}
	if m.IsDeleted {
		out.Content = "[removed]"
	}
	return out
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	courseID, ok := h.pathID(w, r, "courseID")
	if !ok {
		return
	}
	forum, err := h.service.Open(r.Context(), actor, courseID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toForumResponse(forum))
}

func (h *Handler) forCourse(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	courseID, ok := h.pathID(w, r, "courseID")
	if !ok {
		return
	}
	forum, err := h.service.ForCourse(r.Context(), actor, courseID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toForumResponse(forum))
}

func (h *Handler) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := access.PrincipalFromContext(r.Context())
		forumID, ok := h.pathID(w, r, "forumID")
		if !ok {
			return
		}
		if err := h.service.SetActive(r.Context(), actor, forumID, active); err != nil {
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]bool{"is_active": active})
	}
}

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	forumID, ok := h.pathID(w, r, "forumID")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := shared.NewPagination(page, perPage, 0)

	list, err := h.service.Messages(r.Context(), actor, forumID, pagination)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]messageResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMessageResponse(m))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"messages": out,
		"page":     pagination.Page,
		"per_page": pagination.PerPage,
	})
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	forumID, ok := h.pathID(w, r, "forumID")
	if !ok {
		return
	}
	var input PostInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	msg, err := h.service.Post(r.Context(), actor, forumID, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toMessageResponse(msg))
}

type editRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	messageID, ok := h.pathID(w, r, "messageID")
	if !ok {
		return
	}
	var req editRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	msg, err := h.service.Edit(r.Context(), actor, messageID, req.Content)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toMessageResponse(msg))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	messageID, ok := h.pathID(w, r, "messageID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actor, messageID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pin(pinned bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := access.PrincipalFromContext(r.Context())
		messageID, ok := h.pathID(w, r, "messageID")
		if !ok {
			return
		}
		if err := h.service.Pin(r.Context(), actor, messageID, pinned); err != nil {
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]bool{"pinned": pinned})
	}
}

func (h *Handler) like(liked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := access.PrincipalFromContext(r.Context())
		messageID, ok := h.pathID(w, r, "messageID")
		if !ok {
			return
		}
		var err error
		if liked {
			err = h.service.Like(r.Context(), actor, messageID)
		} else {
			err = h.service.Unlike(r.Context(), actor, messageID)
		}
		if err != nil {
			h.respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrForumNotFound), errors.Is(err, ErrMessageNotFound), errors.Is(err, courses.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "not found")
	case errors.Is(err, ErrForumExists):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "course already has a forum")
	case errors.Is(err, ErrForumClosed):
		httpx.Problem(w, http.StatusConflict, "Forum Closed", "forum is not accepting posts")
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		if _, ok := access.AsDenied(err); ok {
			access.WriteError(w, err)
			return
		}
		h.logger.Error("forum handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
