package files

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
	"github.com/atheneum-portal/atheneum-portal/internal/courses"
	"github.com/atheneum-portal/atheneum-portal/internal/platform/httpx"
)

// Handler exposes the upload and download endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	gate     access.Middleware
	maxBytes int64
}

// NewHandler builds a Handler instance. maxBytes caps request bodies on
// the upload routes.
func NewHandler(logger *slog.Logger, service *Service, gate access.Middleware, maxBytes int64) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, maxBytes: maxBytes}
}

// MountRoutes registers file routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequirePrincipal)
		r.Get("/courses/{courseID}/files", h.listCourseFiles)
		r.Post("/courses/{courseID}/files", h.uploadCourseFile)
		r.Post("/forum-images", h.uploadForumImage)
		r.Get("/files/{fileID}", h.get)
		r.Get("/files/{fileID}/download", h.download)
		r.Delete("/files/{fileID}", h.delete)
	})
}

type fileResponse struct {
	ID          int64     `json:"id"`
	CourseID    *int64    `json:"course_id,omitempty"`
	UploaderID  int64     `json:"uploader_id,omitempty"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Public      bool      `json:"public"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResponse(f File) fileResponse {
	return fileResponse{
		ID:          f.ID,
		CourseID:    f.CourseID,
		UploaderID:  f.UploaderID,
		Name:        f.Name,
		ContentType: f.ContentType,
		SizeBytes:   f.SizeBytes,
		Public:      f.Public,
		CreatedAt:   f.CreatedAt,
	}
}

func (h *Handler) listCourseFiles(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	courseID, ok := h.pathID(w, r, "courseID")
	if !ok {
		return
	}
	list, err := h.service.ListCourseFiles(r.Context(), actor, courseID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]fileResponse, 0, len(list))
	for _, f := range list {
		out = append(out, toResponse(f))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"files": out})
}

func (h *Handler) uploadCourseFile(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	courseID, ok := h.pathID(w, r, "courseID")
	if !ok {
		return
	}
	up, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	file, err := h.service.UploadCourseFile(r.Context(), actor, courseID, up)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(file))
}

func (h *Handler) uploadForumImage(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	up, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	file, err := h.service.UploadForumImage(r.Context(), actor, up)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(file))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r, "fileID")
	if !ok {
		return
	}
	file, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(file))
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r, "fileID")
	if !ok {
		return
	}
	file, rc, err := h.service.Download(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error("stream file", slog.Any("error", err), slog.Int64("file", id))
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := access.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r, "fileID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readUpload pulls the "file" part out of a multipart form, capped at
// maxBytes.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	part, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "multipart field 'file' required")
		return Upload{}, false
	}
	return Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        part,
	}, true
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
	case errors.Is(err, ErrNotFound), errors.Is(err, courses.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "file not found")
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		if _, ok := access.AsDenied(err); ok {
			access.WriteError(w, err)
			return
		}
		h.logger.Error("files handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
