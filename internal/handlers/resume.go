package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

// ResumeHandler serves the owner-only resume endpoints.
type ResumeHandler struct {
	resumeService *services.ResumeService
}

func NewResumeHandler(resumeService *services.ResumeService) *ResumeHandler {
	return &ResumeHandler{resumeService: resumeService}
}

// ResumeRouter registers resume routes. Every route requires authentication.
func ResumeRouter(r chi.Router, handler *ResumeHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Put("/", handler.Update)
		r.Delete("/", handler.Delete)
		r.Get("/pdf", handler.PDF)
	})
}

func (h *ResumeHandler) List(w http.ResponseWriter, r *http.Request) {
	resumes, err := h.resumeService.List(r.Context(), currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "", resumes)
}

func (h *ResumeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	resume, err := h.resumeService.Get(r.Context(), currentUser(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "", resume)
}

func (h *ResumeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.ResumeInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	resume, err := h.resumeService.Create(r.Context(), currentUser(r), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, "Resume created successfully.", resume)
}

func (h *ResumeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req types.ResumeUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	resume, err := h.resumeService.Update(r.Context(), currentUser(r), id, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "Resume updated successfully.", resume)
}

func (h *ResumeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.resumeService.Delete(r.Context(), currentUser(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Resume deleted successfully.")
}

// PDF streams the rendered resume as an attachment.
func (h *ResumeHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	resume, data, err := h.resumeService.ExportPDF(r.Context(), currentUser(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, asciiFilename(resume.Title)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// asciiFilename folds title to a header-safe ASCII file name.
func asciiFilename(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r == '"' || r == '\\' || r == '/':
			b.WriteRune('_')
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	name := strings.TrimSpace(b.String())
	if name == "" {
		return "resume"
	}
	return name
}
