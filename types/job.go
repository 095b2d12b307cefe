package types

import (
	"strings"
	"time"
)

// JobStatus is the lifecycle state of a job posting.
type JobStatus string

const (
	JobStatusOpen   JobStatus = "OPEN"
	JobStatusClosed JobStatus = "CLOSED"
)

// ParseJobStatus normalizes raw and reports whether it names a known status.
func ParseJobStatus(raw string) (JobStatus, bool) {
	status := JobStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case JobStatusOpen, JobStatusClosed:
		return status, true
	}
	return "", false
}

// Job is a posting owned by a recruiter (or an admin).
type Job struct {
	// ID is the unique identifier of the job.
	ID int `json:"id" db:"id"`

	// Title is the headline of the posting.
	Title string `json:"title" db:"title"`

	// Description is the full body of the posting.
	Description string `json:"description" db:"description"`

	// Company is the hiring company's name.
	Company string `json:"company" db:"company"`

	// Location is a free-form location string.
	Location string `json:"location" db:"location"`

	// Salary is a free-form compensation string.
	Salary string `json:"salary" db:"salary"`

	// Skills are the skill tags attached to the posting.
	Skills []string `json:"skills" db:"skills"`

	// Status is the lifecycle state of the posting.
	Status JobStatus `json:"status" db:"status"`

	// RecruiterID references the owning user.
	RecruiterID int `json:"recruiterId" db:"recruiter_id"`

	// CreatedAt is the timestamp at which the job was posted.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the job.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// JobSummary is a job with its recruiter and application count, as listed.
type JobSummary struct {
	Job
	Recruiter PublicUser `json:"recruiter"`
	Counts    JobCounts  `json:"_count"`
}

// JobCounts holds per-job aggregate counters.
type JobCounts struct {
	Applications int `json:"applications"`
}

// JobDetail is a job with its recruiter and every application.
type JobDetail struct {
	Job
	Recruiter    PublicUser            `json:"recruiter"`
	Applications []ApplicationWithUser `json:"applications"`
}

// JobFilter drives the public job listing.
type JobFilter struct {
	Search    string
	Company   string
	Location  string
	SortBy    string
	SortOrder string
	Offset    int
	Limit     int
}

// JobUpdate carries a partial job update. Nil fields are left untouched.
type JobUpdate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Company     *string    `json:"company"`
	Location    *string    `json:"location"`
	Salary      *string    `json:"salary"`
	Skills      []string   `json:"skills"`
	Status      *JobStatus `json:"status"`
}

// JobInput is the payload for a new job posting.
type JobInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Salary      string    `json:"salary"`
	Skills      []string  `json:"skills"`
	Status      JobStatus `json:"status"`
}
