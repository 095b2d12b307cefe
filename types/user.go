package types

import (
	"strings"
	"time"
)

// Role is the authorization level of an account.
type Role string

const (
	RoleUser      Role = "USER"
	RoleRecruiter Role = "RECRUITER"
	RoleAdmin     Role = "ADMIN"
)

// Roles lists every valid role.
var Roles = []Role{RoleUser, RoleRecruiter, RoleAdmin}

// ParseRole normalizes raw and reports whether it names a known role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Roles {
		if role == known {
			return role, true
		}
	}
	return "", false
}

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. It is the unique natural key
	// shared by the password and Google signup paths.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// It is empty for accounts created through Google sign-in.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// GoogleID is the Google account subject linked to this user, if any.
	GoogleID string `json:"-" db:"google_id"`

	// Role indicates the user's authorization level. Only an ADMIN may change it.
	Role Role `json:"role" db:"role"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Public returns the profile fields other users may see.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// PublicUser is the profile subset shared with chat counterparts and job viewers.
type PublicUser struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// UserCounts holds per-user aggregate counters shown on profiles.
type UserCounts struct {
	Resumes      int `json:"resumes"`
	Applications int `json:"applications"`
	Jobs         int `json:"jobs"`
}

// UserProfile is a user together with its aggregate counters.
type UserProfile struct {
	User
	Counts UserCounts `json:"_count"`
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Role   Role
	Offset int
	Limit  int
}
