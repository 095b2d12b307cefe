package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Counts(ctx context.Context, id int) (types.UserCounts, error)
	List(ctx context.Context, filter types.UserFilter) ([]types.UserProfile, int, error)
	ListContacts(ctx context.Context, excludeID int, roles []types.Role) ([]types.PublicUser, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return types.User{}, apperr.NotFound("User not found.")
	}
	return user, err
}

// Profile returns the user with resume, application and job counters.
func (s *UserService) Profile(ctx context.Context, id int) (types.UserProfile, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return types.UserProfile{}, err
	}
	counts, err := s.repo.Counts(ctx, id)
	if err != nil {
		return types.UserProfile{}, err
	}
	return types.UserProfile{User: user, Counts: counts}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id int, name string) (types.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.User{}, apperr.Validation("Name is required.")
	}
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	user.Name = name
	return s.repo.Update(ctx, user)
}

func (s *UserService) List(ctx context.Context, filter types.UserFilter) ([]types.UserProfile, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if users == nil {
		users = []types.UserProfile{}
	}
	return users, total, nil
}

// UpdateRole changes a user's role. Authorization is the caller's concern.
func (s *UserService) UpdateRole(ctx context.Context, id int, rawRole string) (types.User, error) {
	role, ok := types.ParseRole(rawRole)
	if !ok {
		return types.User{}, apperr.Validation("Invalid role. Must be USER, RECRUITER, or ADMIN.")
	}
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	user.Role = role
	return s.repo.Update(ctx, user)
}
