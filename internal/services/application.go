package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ledongthuc/pdf"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/internal/authz"
	"github.com/jobportal/apiserver/internal/events"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

// MaxResumeUploadBytes caps the size of a resume attached to an application.
const MaxResumeUploadBytes = 5 << 20

// ApplicationRepository defines persistence operations for applications.
type ApplicationRepository interface {
	Get(ctx context.Context, id int) (types.Application, error)
	Exists(ctx context.Context, userID, jobID int) (bool, error)
	Create(ctx context.Context, app types.Application) (types.Application, error)
	UpdateStatus(ctx context.Context, id int, status types.ApplicationStatus) (types.Application, error)
	ListByJob(ctx context.Context, jobID int) ([]types.ApplicationWithUser, error)
	ListByUser(ctx context.Context, userID int) ([]types.ApplicationWithJob, error)
}

// FileStore keeps uploaded resume files. *storage.Storage satisfies it.
type FileStore interface {
	PutResume(ctx context.Context, userID int, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// ApplicationService encapsulates applying for jobs and reviewing applications.
type ApplicationService struct {
	repo   ApplicationRepository
	jobs   JobRepository
	files  FileStore
	events events.Publisher
}

// NewApplicationService wires the service. files may be nil when uploads are disabled.
func NewApplicationService(repo ApplicationRepository, jobs JobRepository, files FileStore, publisher events.Publisher) *ApplicationService {
	return &ApplicationService{repo: repo, jobs: jobs, files: files, events: publisher}
}

// Apply submits user's application for jobID with an optional PDF resume.
// A second application for the same job is a Conflict and creates no row.
func (s *ApplicationService) Apply(ctx context.Context, user types.User, jobID int, resume []byte) (types.Application, error) {
	if err := authz.Allow(user, authz.ResourceJob, authz.ActionApply); err != nil {
		return types.Application{}, err
	}
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return types.Application{}, jobNotFound(err)
	}
	if job.Status == types.JobStatusClosed {
		return types.Application{}, apperr.Validation("This job is no longer accepting applications.")
	}

	exists, err := s.repo.Exists(ctx, user.ID, jobID)
	if err != nil {
		return types.Application{}, err
	}
	if exists {
		return types.Application{}, alreadyApplied()
	}

	var resumeKey string
	if len(resume) > 0 {
		if s.files == nil {
			return types.Application{}, apperr.Validation("Resume uploads are not enabled.")
		}
		if err := ValidatePDF(resume); err != nil {
			return types.Application{}, err
		}
		resumeKey, err = s.files.PutResume(ctx, user.ID, bytes.NewReader(resume), int64(len(resume)))
		if err != nil {
			return types.Application{}, fmt.Errorf("store resume: %w", err)
		}
	}

	app, err := s.repo.Create(ctx, types.Application{
		UserID:     user.ID,
		JobID:      jobID,
		Status:     types.ApplicationApplied,
		ResumeFile: resumeKey,
	})
	if err != nil {
		s.discardResume(ctx, resumeKey)
		// Lost a race with a concurrent apply; the unique constraint held.
		if errors.Is(err, store.ErrConflict) {
			return types.Application{}, alreadyApplied()
		}
		return types.Application{}, err
	}

	s.events.Publish(ctx, events.JobAppliedEvent{
		ApplicationID: app.ID,
		UserID:        user.ID,
		JobID:         jobID,
		RecruiterID:   job.RecruiterID,
	})
	return app, nil
}

// discardResume removes an upload whose application row was never written.
func (s *ApplicationService) discardResume(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.files.Delete(context.WithoutCancel(ctx), key); err != nil {
		slog.WarnContext(ctx, "failed to remove orphaned resume", "key", key, "error", err)
	}
}

// ListForJob returns a job's applications to its owner or an admin.
func (s *ApplicationService) ListForJob(ctx context.Context, user types.User, jobID int) ([]types.ApplicationWithUser, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, jobNotFound(err)
	}
	if err := authz.Authorize(user, authz.ResourceApplication, authz.ActionList, job.RecruiterID); err != nil {
		return nil, err
	}
	apps, err := s.repo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []types.ApplicationWithUser{}
	}
	return apps, nil
}

// ListForUser returns the applicant's own applications.
func (s *ApplicationService) ListForUser(ctx context.Context, user types.User) ([]types.ApplicationWithJob, error) {
	if err := authz.Allow(user, authz.ResourceApplication, authz.ActionListOwn); err != nil {
		return nil, err
	}
	apps, err := s.repo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []types.ApplicationWithJob{}
	}
	return apps, nil
}

// UpdateStatus sets any status on an application of the caller's job.
func (s *ApplicationService) UpdateStatus(ctx context.Context, user types.User, applicationID int, rawStatus string) (types.Application, error) {
	status, ok := types.ParseApplicationStatus(rawStatus)
	if !ok {
		return types.Application{}, apperr.Validation("Invalid status.")
	}

	app, err := s.repo.Get(ctx, applicationID)
	if err != nil {
		return types.Application{}, applicationNotFound(err)
	}
	job, err := s.jobs.Get(ctx, app.JobID)
	if err != nil {
		return types.Application{}, jobNotFound(err)
	}
	if err := authz.Authorize(user, authz.ResourceApplication, authz.ActionUpdateStatus, job.RecruiterID); err != nil {
		return types.Application{}, err
	}

	updated, err := s.repo.UpdateStatus(ctx, applicationID, status)
	if err != nil {
		return types.Application{}, applicationNotFound(err)
	}

	s.events.Publish(ctx, events.ApplicationStatusChangedEvent{
		ApplicationID: updated.ID,
		UserID:        updated.UserID,
		Status:        updated.Status,
		JobTitle:      job.Title,
	})
	return updated, nil
}

// ValidatePDF rejects uploads that are oversized or not readable PDFs.
func ValidatePDF(data []byte) (err error) {
	if len(data) > MaxResumeUploadBytes {
		return apperr.Validation("Resume file must be 5MB or smaller.")
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return apperr.Validation("Resume must be a PDF file.")
	}
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if recover() != nil {
			err = apperr.Validation("Resume must be a valid PDF file.")
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil || reader.NumPage() == 0 {
		return apperr.Validation("Resume must be a valid PDF file.")
	}
	return nil
}

func alreadyApplied() error {
	return apperr.Conflict("You have already applied for this job.")
}

func applicationNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Application not found.")
	}
	return err
}
