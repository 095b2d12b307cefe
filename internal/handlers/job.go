package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

const (
	formFieldResume    = "resume"
	maxMultipartMemory = 8 << 20
	// Room for the multipart envelope around a maximum-size resume.
	maxApplyBodyBytes = services.MaxResumeUploadBytes + 1<<20
)

// JobHandler serves job postings and applications.
type JobHandler struct {
	jobService         *services.JobService
	applicationService *services.ApplicationService
}

func NewJobHandler(jobService *services.JobService, applicationService *services.ApplicationService) *JobHandler {
	return &JobHandler{jobService: jobService, applicationService: applicationService}
}

// JobRouter registers job routes. Listing and reading are public.
func JobRouter(r chi.Router, handler *JobHandler, authMiddleware func(http.Handler) http.Handler) {
	recruiters := RequireRoles(types.RoleRecruiter, types.RoleAdmin)

	r.Get("/", handler.ListJobs)
	r.With(authMiddleware, recruiters).Post("/", handler.CreateJob)
	r.With(authMiddleware, recruiters).Patch("/applications/{applicationId}/status", handler.UpdateApplicationStatus)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", handler.GetJob)
		r.With(authMiddleware, recruiters).Put("/", handler.UpdateJob)
		r.With(authMiddleware, recruiters).Delete("/", handler.DeleteJob)
		r.With(authMiddleware, RequireRoles(types.RoleUser)).Post("/apply", handler.Apply)
		r.With(authMiddleware, recruiters).Get("/applications", handler.ListApplications)
	})
}

func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	jobs, total, err := h.jobService.List(r.Context(), types.JobFilter{
		Search:    strings.TrimSpace(q.Get("search")),
		Company:   strings.TrimSpace(q.Get("company")),
		Location:  strings.TrimSpace(q.Get("location")),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "", JobListResponse{Jobs: jobs, Pagination: newPagination(page, limit, total)})
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	job, err := h.jobService.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "", job)
}

func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req types.JobInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	job, err := h.jobService.Create(r.Context(), currentUser(r), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, "Job posted successfully.", job)
}

func (h *JobHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req types.JobUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	job, err := h.jobService.Update(r.Context(), currentUser(r), id, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "Job updated successfully.", job)
}

func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.jobService.Delete(r.Context(), currentUser(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Job deleted successfully.")
}

// Apply accepts an empty body, JSON, or a multipart form with an optional
// "resume" PDF file.
func (h *JobHandler) Apply(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	resume, err := readResumeUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	app, err := h.applicationService.Apply(r.Context(), currentUser(r), id, resume)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, "Application submitted successfully.", app)
}

func (h *JobHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	apps, err := h.applicationService.ListForJob(r.Context(), currentUser(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "", apps)
}

func (h *JobHandler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "applicationId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	app, err := h.applicationService.UpdateStatus(r.Context(), currentUser(r), id, req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "Application status updated successfully.", app)
}

func readResumeUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxApplyBodyBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, apperr.Validation("Invalid multipart form.")
	}
	file, header, err := r.FormFile(formFieldResume)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation("Invalid resume upload.")
	}
	defer file.Close()

	if header.Size > services.MaxResumeUploadBytes {
		return nil, apperr.Validation("File too large. Maximum size is 5MB.")
	}
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/pdf" && ct != "application/octet-stream" {
		return nil, apperr.Validation("Invalid file type. Only PDF files are allowed.")
	}
	return io.ReadAll(io.LimitReader(file, services.MaxResumeUploadBytes+1))
}

type JobListResponse struct {
	Jobs       []types.JobSummary `json:"jobs"`
	Pagination Pagination         `json:"pagination"`
}

type StatusRequest struct {
	Status string `json:"status"`
}
