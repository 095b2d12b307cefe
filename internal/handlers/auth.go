package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/internal/auth"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// GoogleOAuth is the Google sign-in client. *auth.GoogleClient satisfies it.
type GoogleOAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (auth.GoogleProfile, error)
}

// AuthHandler provides the sign-up, sign-in and token endpoints.
type AuthHandler struct {
	authService *services.AuthService
	google      GoogleOAuth
	clientURL   string
	secure      bool
}

// NewAuthHandler constructs an AuthHandler. google may be nil when Google
// sign-in is not configured.
func NewAuthHandler(authService *services.AuthService, google GoogleOAuth, clientURL string, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		google:      google,
		clientURL:   strings.TrimRight(clientURL, "/"),
		secure:      secureCookies,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/refresh", handler.Refresh)
	r.Get("/google", handler.GoogleRedirect)
	r.Get("/google/callback", handler.GoogleCallback)
	r.With(authMiddleware).Get("/me", handler.Me)
}

// RequireAuth resolves the bearer access token to a user and stores it in
// the request context.
func RequireAuth(authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Access denied. No token provided.", apperr.KindUnauthorized.String())
				return
			}
			user, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				respondError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), contextUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects users whose role is not listed. It must run after RequireAuth.
func RequireRoles(roles ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required.", apperr.KindUnauthorized.String())
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, r, apperr.Forbidden("Access denied. Insufficient permissions."))
		})
	}
}

func userFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	return user, ok
}

// currentUser is for handlers mounted behind RequireAuth.
func currentUser(r *http.Request) types.User {
	user, _ := userFromContext(r.Context())
	return user
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	session, err := h.authService.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, "User registered successfully.", sessionResponse(session))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "Login successful.", sessionResponse(session))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "Token refreshed successfully.", pair)
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, "", currentUser(r))
}

// GoogleRedirect sends the browser to the Google consent screen.
func (h *AuthHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		respondError(w, r, apperr.NotFound("Google sign-in is not enabled."))
		return
	}
	state, err := auth.NewState()
	if err != nil {
		respondError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback completes sign-in and hands the tokens to the web client.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		respondError(w, r, apperr.NotFound("Google sign-in is not enabled."))
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.redirectError(w, r, "invalid_state")
		return
	}

	profile, err := h.google.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		slog.WarnContext(r.Context(), "google exchange failed", "error", err)
		h.redirectError(w, r, "exchange_failed")
		return
	}
	session, err := h.authService.GoogleLogin(r.Context(), profile)
	if err != nil {
		slog.ErrorContext(r.Context(), "google login failed", "error", err)
		h.redirectError(w, r, "login_failed")
		return
	}

	q := url.Values{}
	q.Set("accessToken", session.AccessToken)
	q.Set("refreshToken", session.RefreshToken)
	http.Redirect(w, r, h.clientURL+"/auth/success?"+q.Encode(), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) redirectError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.clientURL+"/auth/error?reason="+url.QueryEscape(reason), http.StatusTemporaryRedirect)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	User         types.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

func sessionResponse(session services.Session) AuthResponse {
	return AuthResponse{
		User:         session.User,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
