package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jobportal/apiserver/types"
)

// ResumeRepository handles persistence for resumes.
type ResumeRepository struct {
	db *sql.DB
}

func NewResumeRepository(db *sql.DB) *ResumeRepository {
	return &ResumeRepository{db: db}
}

const resumeColumns = `id, user_id, title, content, created_at, updated_at`

func scanResume(row scanner) (types.Resume, error) {
	var resume types.Resume
	var content []byte
	if err := row.Scan(
		&resume.ID,
		&resume.UserID,
		&resume.Title,
		&content,
		&resume.CreatedAt,
		&resume.UpdatedAt,
	); err != nil {
		return types.Resume{}, translate(err)
	}
	resume.Content = json.RawMessage(content)
	return resume, nil
}

func (r *ResumeRepository) Get(ctx context.Context, id int) (types.Resume, error) {
	const query = `SELECT ` + resumeColumns + ` FROM resumes WHERE id = $1`
	return scanResume(r.db.QueryRowContext(ctx, query, id))
}

func (r *ResumeRepository) ListByUser(ctx context.Context, userID int) ([]types.Resume, error) {
	const query = `SELECT ` + resumeColumns + ` FROM resumes WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resumes := []types.Resume{}
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		resumes = append(resumes, resume)
	}
	return resumes, rows.Err()
}

func (r *ResumeRepository) Create(ctx context.Context, resume types.Resume) (types.Resume, error) {
	now := time.Now()
	resume.CreatedAt = now
	resume.UpdatedAt = now

	const query = `
		INSERT INTO resumes (user_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		resume.UserID,
		resume.Title,
		string(resume.Content),
		resume.CreatedAt,
		resume.UpdatedAt,
	).Scan(&resume.ID); err != nil {
		return types.Resume{}, translate(err)
	}
	return resume, nil
}

func (r *ResumeRepository) Update(ctx context.Context, resume types.Resume) (types.Resume, error) {
	resume.UpdatedAt = time.Now()

	const query = `
		UPDATE resumes
		SET title = $1,
			content = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, resume.Title, string(resume.Content), resume.UpdatedAt, resume.ID)
	if err != nil {
		return types.Resume{}, translate(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Resume{}, err
	}
	if affected == 0 {
		return types.Resume{}, ErrNotFound
	}
	return resume, nil
}

func (r *ResumeRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM resumes WHERE id = $1`
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
