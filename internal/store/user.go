package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jobportal/apiserver/types"
	"github.com/lib/pq"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, COALESCE(password_hash, ''), COALESCE(google_id, ''), role, created_at, updated_at`

func scanUser(row scanner) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.GoogleID,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return types.User{}, translate(err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, googleID))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (name, email, password_hash, google_id, role, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.GoogleID,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, translate(err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET name = $1,
			email = $2,
			password_hash = NULLIF($3, ''),
			google_id = NULLIF($4, ''),
			role = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.GoogleID,
		user.Role,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, translate(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

// Counts returns the resume, application and job counters for a user.
func (r *UserRepository) Counts(ctx context.Context, id int) (types.UserCounts, error) {
	const query = `
		SELECT
			(SELECT COUNT(1) FROM resumes WHERE user_id = $1),
			(SELECT COUNT(1) FROM applications WHERE user_id = $1),
			(SELECT COUNT(1) FROM jobs WHERE recruiter_id = $1)`
	var counts types.UserCounts
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&counts.Resumes, &counts.Applications, &counts.Jobs); err != nil {
		return types.UserCounts{}, translate(err)
	}
	return counts, nil
}

// List returns a page of users with their counters, newest first.
func (r *UserRepository) List(ctx context.Context, filter types.UserFilter) ([]types.UserProfile, int, error) {
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	const countQuery = `SELECT COUNT(1) FROM users WHERE ($1 = '' OR role = $1)`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, string(filter.Role)).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT ` + userColumns + `,
			(SELECT COUNT(1) FROM resumes rs WHERE rs.user_id = users.id),
			(SELECT COUNT(1) FROM applications a WHERE a.user_id = users.id),
			(SELECT COUNT(1) FROM jobs j WHERE j.recruiter_id = users.id)
		FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, string(filter.Role), filter.Offset, filter.Limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]types.UserProfile, 0, filter.Limit)
	for rows.Next() {
		var profile types.UserProfile
		if err := rows.Scan(
			&profile.ID,
			&profile.Name,
			&profile.Email,
			&profile.PasswordHash,
			&profile.GoogleID,
			&profile.Role,
			&profile.CreatedAt,
			&profile.UpdatedAt,
			&profile.Counts.Resumes,
			&profile.Counts.Applications,
			&profile.Counts.Jobs,
		); err != nil {
			return nil, 0, err
		}
		users = append(users, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListContacts returns users other than excludeID, restricted to roles unless
// roles is empty, ordered by name.
func (r *UserRepository) ListContacts(ctx context.Context, excludeID int, roles []types.Role) ([]types.PublicUser, error) {
	roleNames := make([]string, 0, len(roles))
	for _, role := range roles {
		roleNames = append(roleNames, string(role))
	}

	const query = `
		SELECT id, name, email, role
		FROM users
		WHERE id <> $1
		  AND (cardinality($2::text[]) = 0 OR role = ANY($2::text[]))
		ORDER BY name ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, excludeID, pq.Array(roleNames))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.PublicUser
	for rows.Next() {
		var user types.PublicUser
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
