package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

// UserHandler serves profile and admin user endpoints.
type UserHandler struct {
	userService        *services.UserService
	jobService         *services.JobService
	applicationService *services.ApplicationService
}

func NewUserHandler(userService *services.UserService, jobService *services.JobService, applicationService *services.ApplicationService) *UserHandler {
	return &UserHandler{
		userService:        userService,
		jobService:         jobService,
		applicationService: applicationService,
	}
}

// UserRouter registers user routes. Every route requires authentication.
func UserRouter(r chi.Router, handler *UserHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Get("/profile", handler.Profile)
	r.Put("/profile", handler.UpdateProfile)
	r.With(RequireRoles(types.RoleUser)).Get("/applications", handler.Applications)
	r.With(RequireRoles(types.RoleRecruiter, types.RoleAdmin)).Get("/jobs", handler.Jobs)
	r.With(RequireRoles(types.RoleAdmin)).Get("/", handler.List)
	r.With(RequireRoles(types.RoleAdmin)).Patch("/{id}/role", handler.UpdateRole)
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.Profile(r.Context(), currentUser(r).ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "", profile)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	user, err := h.userService.UpdateProfile(r.Context(), currentUser(r).ID, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "Profile updated successfully.", user)
}

func (h *UserHandler) Applications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applicationService.ListForUser(r.Context(), currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "", apps)
}

func (h *UserHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobService.ListForRecruiter(r.Context(), currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "", jobs)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	filter := types.UserFilter{Offset: offset, Limit: limit}
	if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
		role, ok := types.ParseRole(raw)
		if !ok {
			respondError(w, r, apperr.Validation("Invalid role."))
			return
		}
		filter.Role = role
	}

	users, total, err := h.userService.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "", UserListResponse{Users: users, Pagination: newPagination(page, limit, total)})
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req RoleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	user, err := h.userService.UpdateRole(r.Context(), id, req.Role)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "User role updated successfully.", user)
}

type ProfileRequest struct {
	Name string `json:"name"`
}

type RoleRequest struct {
	Role string `json:"role"`
}

type UserListResponse struct {
	Users      []types.UserProfile `json:"users"`
	Pagination Pagination          `json:"pagination"`
}
