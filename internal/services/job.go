package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/internal/authz"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

// JobRepository defines persistence operations for jobs.
type JobRepository interface {
	List(ctx context.Context, filter types.JobFilter) ([]types.JobSummary, int, error)
	ListByRecruiter(ctx context.Context, recruiterID int) ([]types.JobSummary, error)
	Get(ctx context.Context, id int) (types.Job, error)
	GetWithRecruiter(ctx context.Context, id int) (types.Job, types.PublicUser, error)
	Create(ctx context.Context, job types.Job) (types.Job, error)
	Update(ctx context.Context, job types.Job) (types.Job, error)
	Delete(ctx context.Context, id int) error
}

// JobService encapsulates job posting use-cases.
type JobService struct {
	repo         JobRepository
	applications ApplicationRepository
}

func NewJobService(repo JobRepository, applications ApplicationRepository) *JobService {
	return &JobService{repo: repo, applications: applications}
}

func (s *JobService) List(ctx context.Context, filter types.JobFilter) ([]types.JobSummary, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	jobs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if jobs == nil {
		jobs = []types.JobSummary{}
	}
	return jobs, total, nil
}

// Get returns a job with its recruiter and applications.
func (s *JobService) Get(ctx context.Context, id int) (types.JobDetail, error) {
	job, recruiter, err := s.repo.GetWithRecruiter(ctx, id)
	if err != nil {
		return types.JobDetail{}, jobNotFound(err)
	}
	applications, err := s.applications.ListByJob(ctx, id)
	if err != nil {
		return types.JobDetail{}, err
	}
	if applications == nil {
		applications = []types.ApplicationWithUser{}
	}
	return types.JobDetail{Job: job, Recruiter: recruiter, Applications: applications}, nil
}

// ListForRecruiter returns the caller's own jobs, or every job for an admin.
func (s *JobService) ListForRecruiter(ctx context.Context, user types.User) ([]types.JobSummary, error) {
	if err := authz.Allow(user, authz.ResourceJob, authz.ActionListOwn); err != nil {
		return nil, err
	}
	recruiterID := user.ID
	if user.Role == types.RoleAdmin {
		recruiterID = 0
	}
	jobs, err := s.repo.ListByRecruiter(ctx, recruiterID)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []types.JobSummary{}
	}
	return jobs, nil
}

func (s *JobService) Create(ctx context.Context, user types.User, in types.JobInput) (types.Job, error) {
	if err := authz.Allow(user, authz.ResourceJob, authz.ActionCreate); err != nil {
		return types.Job{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Company = strings.TrimSpace(in.Company)
	if in.Title == "" || in.Description == "" || in.Company == "" {
		return types.Job{}, apperr.Validation("Title, description, and company are required.")
	}

	status := types.JobStatusOpen
	if in.Status != "" {
		parsed, ok := types.ParseJobStatus(string(in.Status))
		if !ok {
			return types.Job{}, apperr.Validation("Status must be OPEN or CLOSED.")
		}
		status = parsed
	}

	return s.repo.Create(ctx, types.Job{
		Title:       in.Title,
		Description: in.Description,
		Company:     in.Company,
		Location:    strings.TrimSpace(in.Location),
		Salary:      strings.TrimSpace(in.Salary),
		Skills:      cleanSkills(in.Skills),
		Status:      status,
		RecruiterID: user.ID,
	})
}

// Update applies a partial update. Empty strings leave a field unchanged.
func (s *JobService) Update(ctx context.Context, user types.User, id int, update types.JobUpdate) (types.Job, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Job{}, jobNotFound(err)
	}
	if err := authz.Authorize(user, authz.ResourceJob, authz.ActionUpdate, job.RecruiterID); err != nil {
		return types.Job{}, err
	}

	setIfPresent(&job.Title, update.Title)
	setIfPresent(&job.Description, update.Description)
	setIfPresent(&job.Company, update.Company)
	setIfPresent(&job.Location, update.Location)
	setIfPresent(&job.Salary, update.Salary)
	if update.Skills != nil {
		job.Skills = cleanSkills(update.Skills)
	}
	if update.Status != nil && *update.Status != "" {
		status, ok := types.ParseJobStatus(string(*update.Status))
		if !ok {
			return types.Job{}, apperr.Validation("Status must be OPEN or CLOSED.")
		}
		job.Status = status
	}

	updated, err := s.repo.Update(ctx, job)
	if err != nil {
		return types.Job{}, jobNotFound(err)
	}
	return updated, nil
}

func (s *JobService) Delete(ctx context.Context, user types.User, id int) error {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return jobNotFound(err)
	}
	if err := authz.Authorize(user, authz.ResourceJob, authz.ActionDelete, job.RecruiterID); err != nil {
		return err
	}
	return jobNotFound(s.repo.Delete(ctx, id))
}

func jobNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Job not found.")
	}
	return err
}

func setIfPresent(dst *string, value *string) {
	if value == nil {
		return
	}
	if trimmed := strings.TrimSpace(*value); trimmed != "" {
		*dst = trimmed
	}
}

func cleanSkills(skills []string) []string {
	cleaned := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, skill)
	}
	return cleaned
}
