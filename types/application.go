package types

import (
	"strings"
	"time"
)

// ApplicationStatus is the review state of an application.
// Any status may follow any other.
type ApplicationStatus string

const (
	ApplicationApplied     ApplicationStatus = "APPLIED"
	ApplicationReviewed    ApplicationStatus = "REVIEWED"
	ApplicationShortlisted ApplicationStatus = "SHORTLISTED"
	ApplicationRejected    ApplicationStatus = "REJECTED"
	ApplicationSelected    ApplicationStatus = "SELECTED"
)

// ApplicationStatuses lists the statuses in their display order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationApplied,
	ApplicationReviewed,
	ApplicationShortlisted,
	ApplicationRejected,
	ApplicationSelected,
}

// ParseApplicationStatus normalizes raw and reports whether it names a known status.
func ParseApplicationStatus(raw string) (ApplicationStatus, bool) {
	status := ApplicationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range ApplicationStatuses {
		if status == known {
			return status, true
		}
	}
	return "", false
}

// Application links one user to one job. At most one exists per (user, job) pair.
type Application struct {
	// ID is the unique identifier of the application.
	ID int `json:"id" db:"id"`

	// UserID identifies the applicant.
	UserID int `json:"userId" db:"user_id"`

	// JobID identifies the job applied for.
	JobID int `json:"jobId" db:"job_id"`

	// Status is the current review state.
	Status ApplicationStatus `json:"status" db:"status"`

	// ResumeFile is the object storage key of the attached resume, if any.
	ResumeFile string `json:"resumeFile,omitempty" db:"resume_file"`

	// CreatedAt is the timestamp at which the application was submitted.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent status change.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ApplicationWithUser is an application together with the applicant's public profile.
type ApplicationWithUser struct {
	Application
	User PublicUser `json:"user"`
}

// ApplicationWithJob is an application together with a summary of the job and its recruiter.
type ApplicationWithJob struct {
	Application
	Job ApplicationJob `json:"job"`
}

// ApplicationJob is the job summary embedded in an applicant's application list.
type ApplicationJob struct {
	ID        int        `json:"id"`
	Title     string     `json:"title"`
	Company   string     `json:"company"`
	Location  string     `json:"location"`
	Recruiter PublicUser `json:"recruiter"`
}
