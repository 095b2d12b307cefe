package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jobportal/apiserver/types"
	"github.com/lib/pq"
)

// JobRepository handles persistence for jobs.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

var jobSortColumns = map[string]string{
	"createdAt": "j.created_at",
	"title":     "j.title",
	"company":   "j.company",
	"salary":    "j.salary",
	"location":  "j.location",
}

const jobColumns = `j.id, j.title, j.description, j.company, j.location, j.salary, j.skills, j.status, j.recruiter_id, j.created_at, j.updated_at`

func jobScanTargets(job *types.Job) []any {
	return []any{
		&job.ID,
		&job.Title,
		&job.Description,
		&job.Company,
		&job.Location,
		&job.Salary,
		(*pq.StringArray)(&job.Skills),
		&job.Status,
		&job.RecruiterID,
		&job.CreatedAt,
		&job.UpdatedAt,
	}
}

// List returns a filtered, sorted page of jobs with recruiter summaries and application counts.
func (r *JobRepository) List(ctx context.Context, filter types.JobFilter) ([]types.JobSummary, int, error) {
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}
	sortColumn, ok := jobSortColumns[filter.SortBy]
	if !ok {
		sortColumn = jobSortColumns["createdAt"]
	}
	sortOrder := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	const where = `
		WHERE ($1 = '' OR j.title ILIKE '%' || $1 || '%' OR j.description ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR j.company ILIKE '%' || $2 || '%')
		  AND ($3 = '' OR j.location ILIKE '%' || $3 || '%')`
	args := []any{filter.Search, filter.Company, filter.Location}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs j`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`
		SELECT %s, u.id, u.name, u.email, u.role,
			(SELECT COUNT(1) FROM applications a WHERE a.job_id = j.id)
		FROM jobs j
		JOIN users u ON u.id = j.recruiter_id
		%s
		ORDER BY %s %s, j.id %s
		OFFSET $4 LIMIT $5`, jobColumns, where, sortColumn, sortOrder, sortOrder)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, filter.Offset, filter.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	jobs := make([]types.JobSummary, 0, filter.Limit)
	for rows.Next() {
		var summary types.JobSummary
		targets := append(jobScanTargets(&summary.Job),
			&summary.Recruiter.ID,
			&summary.Recruiter.Name,
			&summary.Recruiter.Email,
			&summary.Recruiter.Role,
			&summary.Counts.Applications,
		)
		if err := rows.Scan(targets...); err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// ListByRecruiter returns jobs owned by recruiterID, or every job when recruiterID is 0.
func (r *JobRepository) ListByRecruiter(ctx context.Context, recruiterID int) ([]types.JobSummary, error) {
	const query = `
		SELECT ` + jobColumns + `, u.id, u.name, u.email, u.role,
			(SELECT COUNT(1) FROM applications a WHERE a.job_id = j.id)
		FROM jobs j
		JOIN users u ON u.id = j.recruiter_id
		WHERE ($1 = 0 OR j.recruiter_id = $1)
		ORDER BY j.created_at DESC, j.id DESC`
	rows, err := r.db.QueryContext(ctx, query, recruiterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []types.JobSummary
	for rows.Next() {
		var summary types.JobSummary
		targets := append(jobScanTargets(&summary.Job),
			&summary.Recruiter.ID,
			&summary.Recruiter.Name,
			&summary.Recruiter.Email,
			&summary.Recruiter.Role,
			&summary.Counts.Applications,
		)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		jobs = append(jobs, summary)
	}
	return jobs, rows.Err()
}

func (r *JobRepository) Get(ctx context.Context, id int) (types.Job, error) {
	const query = `SELECT ` + jobColumns + ` FROM jobs j WHERE j.id = $1`
	var job types.Job
	if err := r.db.QueryRowContext(ctx, query, id).Scan(jobScanTargets(&job)...); err != nil {
		return types.Job{}, translate(err)
	}
	return job, nil
}

// GetWithRecruiter returns a job joined with its recruiter's public profile.
func (r *JobRepository) GetWithRecruiter(ctx context.Context, id int) (types.Job, types.PublicUser, error) {
	const query = `
		SELECT ` + jobColumns + `, u.id, u.name, u.email, u.role
		FROM jobs j
		JOIN users u ON u.id = j.recruiter_id
		WHERE j.id = $1`
	var job types.Job
	var recruiter types.PublicUser
	targets := append(jobScanTargets(&job), &recruiter.ID, &recruiter.Name, &recruiter.Email, &recruiter.Role)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(targets...); err != nil {
		return types.Job{}, types.PublicUser{}, translate(err)
	}
	return job, recruiter, nil
}

func (r *JobRepository) Create(ctx context.Context, job types.Job) (types.Job, error) {
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Skills == nil {
		job.Skills = []string{}
	}

	const query = `
		INSERT INTO jobs (title, description, company, location, salary, skills, status, recruiter_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		job.Title,
		job.Description,
		job.Company,
		job.Location,
		job.Salary,
		pq.Array(job.Skills),
		job.Status,
		job.RecruiterID,
		job.CreatedAt,
		job.UpdatedAt,
	).Scan(&job.ID); err != nil {
		return types.Job{}, translate(err)
	}
	return job, nil
}

func (r *JobRepository) Update(ctx context.Context, job types.Job) (types.Job, error) {
	job.UpdatedAt = time.Now()
	if job.Skills == nil {
		job.Skills = []string{}
	}

	const query = `
		UPDATE jobs
		SET title = $1,
			description = $2,
			company = $3,
			location = $4,
			salary = $5,
			skills = $6,
			status = $7,
			updated_at = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		job.Title,
		job.Description,
		job.Company,
		job.Location,
		job.Salary,
		pq.Array(job.Skills),
		job.Status,
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		return types.Job{}, translate(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Job{}, err
	}
	if affected == 0 {
		return types.Job{}, ErrNotFound
	}
	return job, nil
}

func (r *JobRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM jobs WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
