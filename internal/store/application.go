package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jobportal/apiserver/types"
)

// ApplicationRepository handles persistence for job applications.
type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `a.id, a.user_id, a.job_id, a.status, COALESCE(a.resume_file, ''), a.created_at, a.updated_at`

func applicationScanTargets(app *types.Application) []any {
	return []any{
		&app.ID,
		&app.UserID,
		&app.JobID,
		&app.Status,
		&app.ResumeFile,
		&app.CreatedAt,
		&app.UpdatedAt,
	}
}

func (r *ApplicationRepository) Get(ctx context.Context, id int) (types.Application, error) {
	const query = `SELECT ` + applicationColumns + ` FROM applications a WHERE a.id = $1`
	var app types.Application
	if err := r.db.QueryRowContext(ctx, query, id).Scan(applicationScanTargets(&app)...); err != nil {
		return types.Application{}, translate(err)
	}
	return app, nil
}

// Exists reports whether userID already applied for jobID.
func (r *ApplicationRepository) Exists(ctx context.Context, userID, jobID int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM applications WHERE user_id = $1 AND job_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, jobID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts an application. A second application for the same (user, job)
// pair fails with ErrConflict through the uq_applications_user_job constraint.
func (r *ApplicationRepository) Create(ctx context.Context, app types.Application) (types.Application, error) {
	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now

	const query = `
		INSERT INTO applications (user_id, job_id, status, resume_file, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		app.UserID,
		app.JobID,
		app.Status,
		app.ResumeFile,
		app.CreatedAt,
		app.UpdatedAt,
	).Scan(&app.ID); err != nil {
		return types.Application{}, translate(err)
	}
	return app, nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id int, status types.ApplicationStatus) (types.Application, error) {
	const query = `
		UPDATE applications a
		SET status = $1, updated_at = $2
		WHERE a.id = $3
		RETURNING ` + applicationColumns
	var app types.Application
	if err := r.db.QueryRowContext(ctx, query, status, time.Now(), id).Scan(applicationScanTargets(&app)...); err != nil {
		return types.Application{}, translate(err)
	}
	return app, nil
}

// ListByJob returns a job's applications with applicant profiles, newest first.
func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID int) ([]types.ApplicationWithUser, error) {
	const query = `
		SELECT ` + applicationColumns + `, u.id, u.name, u.email, u.role
		FROM applications a
		JOIN users u ON u.id = a.user_id
		WHERE a.job_id = $1
		ORDER BY a.created_at DESC, a.id DESC`
	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []types.ApplicationWithUser{}
	for rows.Next() {
		var app types.ApplicationWithUser
		targets := append(applicationScanTargets(&app.Application), &app.User.ID, &app.User.Name, &app.User.Email, &app.User.Role)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// ListByUser returns a user's applications with job and recruiter summaries, newest first.
func (r *ApplicationRepository) ListByUser(ctx context.Context, userID int) ([]types.ApplicationWithJob, error) {
	const query = `
		SELECT ` + applicationColumns + `,
			j.id, j.title, j.company, j.location,
			u.id, u.name, u.email, u.role
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		JOIN users u ON u.id = j.recruiter_id
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC, a.id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []types.ApplicationWithJob{}
	for rows.Next() {
		var app types.ApplicationWithJob
		targets := append(applicationScanTargets(&app.Application),
			&app.Job.ID,
			&app.Job.Title,
			&app.Job.Company,
			&app.Job.Location,
			&app.Job.Recruiter.ID,
			&app.Job.Recruiter.Name,
			&app.Job.Recruiter.Email,
			&app.Job.Recruiter.Role,
		)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}
