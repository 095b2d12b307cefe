package handlers

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jobportal/apiserver/internal/apperr"
)

// ObjectReader serves stored resume objects. *storage.Storage satisfies it.
type ObjectReader interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// UploadHandler streams stored resume files back to authenticated clients.
type UploadHandler struct {
	objects ObjectReader
}

// NewUploadHandler constructs an UploadHandler. objects may be nil when no
// storage backend is configured, in which case every lookup is a 404.
func NewUploadHandler(objects ObjectReader) *UploadHandler {
	return &UploadHandler{objects: objects}
}

func UploadRouter(r chi.Router, handler *UploadHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Get("/*", handler.Get)
}

func (h *UploadHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if h.objects == nil || key == "" {
		respondError(w, r, apperr.NotFound("File not found."))
		return
	}

	body, err := h.objects.Get(r.Context(), key)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+path.Base(key)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}
