package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/internal/auth"
	"github.com/jobportal/apiserver/internal/storage"
	"github.com/jobportal/apiserver/internal/store"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	// Stack is the responder's goroutine stack, sent for unexpected
	// failures in development only.
	Stack string `json:"stack,omitempty"`
}

type contextKey string

const (
	contextUserKey    contextKey = "user"
	contextVerboseKey contextKey = "verbose_errors"
)

// VerboseErrors makes respondError include stack traces for unexpected
// failures. It is enabled in development only.
func VerboseErrors(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), contextVerboseKey, enabled)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func respondData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: true, Message: message})
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, Envelope{Success: false, Message: message, Error: code})
}

// respondError is the single place errors become HTTP responses.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, message, code := classify(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		if verbose, _ := r.Context().Value(contextVerboseKey).(bool); verbose && code == apperr.KindInternal.String() {
			writeJSON(w, status, Envelope{Success: false, Message: message, Error: code, Stack: string(debug.Stack())})
			return
		}
	}
	writeError(w, status, message, code)
}

func classify(err error) (status int, message, code string) {
	var maxBytes *http.MaxBytesError
	var appErr *apperr.Error

	switch {
	case errors.As(err, &appErr):
		return statusOf(appErr.Kind), appErr.Message, appErr.Kind.String()
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrObjectNotFound), errors.Is(err, storage.ErrInvalidKey):
		return http.StatusNotFound, "Record not found.", apperr.KindNotFound.String()
	case errors.Is(err, store.ErrConflict):
		return http.StatusBadRequest, "Duplicate entry. This record already exists.", apperr.KindConflict.String()
	case errors.Is(err, jwt.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired.", "TOKEN_EXPIRED"
	case isTokenError(err):
		return http.StatusUnauthorized, "Invalid token.", "INVALID_TOKEN"
	case errors.As(err, &maxBytes):
		return http.StatusBadRequest, "File too large. Maximum size is 5MB.", "FILE_TOO_LARGE"
	default:
		return http.StatusInternalServerError, err.Error(), apperr.KindInternal.String()
	}
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func isTokenError(err error) bool {
	for _, target := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenInvalidClaims,
		auth.ErrWrongTokenType,
		auth.ErrMissingSubject,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return apperr.Validation("Invalid request body.")
	}
	return nil
}
