// Package auth issues and verifies JWT access and refresh tokens and talks to
// Google for OAuth sign-in.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jobportal/apiserver/config"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

var (
	ErrWrongTokenType = errors.New("wrong token type")
	ErrMissingSubject = errors.New("missing subject")
)

// Claims are the JWT claims carried by both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
}

// Pair is what login, register and refresh hand back to the client.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService signs access tokens and refresh tokens with separate secrets.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenService(cfg config.AuthConfig) *TokenService {
	refresh := cfg.RefreshSecret
	if refresh == "" {
		refresh = cfg.JWTSecret
	}
	return &TokenService{
		accessSecret:  []byte(cfg.JWTSecret),
		refreshSecret: []byte(refresh),
		issuer:        cfg.Issuer,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

// IssuePair signs a fresh access/refresh pair for userID.
func (s *TokenService) IssuePair(userID int) (Pair, error) {
	access, err := s.sign(userID, typeAccess, s.accessSecret, s.accessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(userID, typeRefresh, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccess verifies an access token and returns its user id.
func (s *TokenService) ParseAccess(token string) (int, error) {
	return s.parse(token, typeAccess, s.accessSecret)
}

// ParseRefresh verifies a refresh token and returns its user id.
func (s *TokenService) ParseRefresh(token string) (int, error) {
	return s.parse(token, typeRefresh, s.refreshSecret)
}

func (s *TokenService) sign(userID int, typ string, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type: typ,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *TokenService) parse(tokenString, typ string, secret []byte) (int, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	if _, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...); err != nil {
		return 0, err
	}
	if claims.Type != typ {
		return 0, ErrWrongTokenType
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil || id < 1 {
		return 0, ErrMissingSubject
	}
	return id, nil
}
