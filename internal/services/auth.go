package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/internal/auth"
	"github.com/jobportal/apiserver/internal/events"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

const (
	bcryptCost        = 12
	minPasswordLength = 6
)

// TokenIssuer issues and verifies token pairs. *auth.TokenService satisfies it.
type TokenIssuer interface {
	IssuePair(userID int) (auth.Pair, error)
	ParseAccess(token string) (int, error)
	ParseRefresh(token string) (int, error)
}

// RegisterInput is the payload of a password signup.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Session is a user together with a freshly issued token pair.
type Session struct {
	User types.User `json:"user"`
	auth.Pair
}

// AuthService implements password and Google sign-in.
type AuthService struct {
	users  UserRepository
	tokens TokenIssuer
	events events.Publisher
}

func NewAuthService(users UserRepository, tokens TokenIssuer, publisher events.Publisher) *AuthService {
	return &AuthService{users: users, tokens: tokens, events: publisher}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return Session{}, apperr.Validation("Name, email, and password are required.")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return Session{}, apperr.Validation("Invalid email address.")
	}
	if len(in.Password) < minPasswordLength {
		return Session{}, apperr.Validation("Password must be at least 6 characters.")
	}

	role := types.RoleUser
	if in.Role != "" {
		parsed, ok := types.ParseRole(in.Role)
		if !ok || parsed == types.RoleAdmin {
			return Session{}, apperr.Validation("Role must be USER or RECRUITER.")
		}
		role = parsed
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return Session{}, apperr.Conflict("User already exists with this email.")
	} else if !errors.Is(err, store.ErrNotFound) {
		return Session{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return Session{}, err
	}

	user, err := s.users.Create(ctx, types.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashed),
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Session{}, apperr.Conflict("User already exists with this email.")
		}
		return Session{}, err
	}

	s.events.Publish(ctx, events.UserRegisteredEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Method: "email",
	})
	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, apperr.Validation("Email and password are required.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, apperr.Unauthorized("Invalid credentials.")
		}
		return Session{}, err
	}
	// Google-only accounts have no password to compare against.
	if user.PasswordHash == "" {
		return Session{}, apperr.Unauthorized("Invalid credentials.")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, apperr.Unauthorized("Invalid credentials.")
	}
	return s.session(user)
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (auth.Pair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return auth.Pair{}, apperr.Unauthorized("Refresh token required.")
	}
	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return auth.Pair{}, apperr.Unauthorized("Invalid refresh token.")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return auth.Pair{}, apperr.Unauthorized("Invalid refresh token.")
		}
		return auth.Pair{}, err
	}
	return s.tokens.IssuePair(userID)
}

// Authenticate resolves an access token to the current user. The token
// error is returned unwrapped so responders can tell expiry apart.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (types.User, error) {
	userID, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return types.User{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.Unauthorized("Invalid token. User not found.")
		}
		return types.User{}, err
	}
	return user, nil
}

// GoogleLogin finds or creates the account for a Google profile. An
// existing password account with the same email gets the Google id linked.
func (s *AuthService) GoogleLogin(ctx context.Context, profile auth.GoogleProfile) (Session, error) {
	user, err := s.users.GetByGoogleID(ctx, profile.ID)
	if err == nil {
		return s.session(user)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return Session{}, err
	}

	user, err = s.users.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		user.GoogleID = profile.ID
		user, err = s.users.Update(ctx, user)
		if err != nil {
			return Session{}, err
		}
		return s.session(user)
	case !errors.Is(err, store.ErrNotFound):
		return Session{}, err
	}

	user, err = s.users.Create(ctx, types.User{
		Name:     profile.Name,
		Email:    profile.Email,
		GoogleID: profile.ID,
		Role:     types.RoleUser,
	})
	if err != nil {
		return Session{}, err
	}
	s.events.Publish(ctx, events.UserRegisteredEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Method: "google",
	})
	return s.session(user)
}

func (s *AuthService) session(user types.User) (Session, error) {
	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Pair: pair}, nil
}
