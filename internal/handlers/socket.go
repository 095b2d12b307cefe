package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/internal/realtime"
	"github.com/jobportal/apiserver/internal/services"
)

const socketHandshakeTimeout = 10 * time.Second

// SocketHandler authenticates and upgrades realtime chat connections.
type SocketHandler struct {
	authService *services.AuthService
	dispatcher  *realtime.Dispatcher
	upgrader    websocket.Upgrader
	logger      *slog.Logger
	// ctx ends every session on server shutdown.
	ctx context.Context
}

func NewSocketHandler(ctx context.Context, authService *services.AuthService, dispatcher *realtime.Dispatcher, allowedOrigins []string, logger *slog.Logger) *SocketHandler {
	return &SocketHandler{
		authService: authService,
		dispatcher:  dispatcher,
		logger:      logger,
		ctx:         ctx,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: socketHandshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			CheckOrigin:      originChecker(allowedOrigins),
		},
	}
}

// ServeHTTP requires a valid access token, passed as the token query
// parameter or a bearer Authorization header, before upgrading.
func (h *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		var err error
		if token, err = bearerToken(r); err != nil {
			writeError(w, http.StatusUnauthorized, "Access denied. No token provided.", apperr.KindUnauthorized.String())
			return
		}
	}
	user, err := h.authService.Authenticate(r.Context(), token)
	if err != nil {
		respondError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	// The handshake deadline must not linger on the hijacked connection.
	_ = conn.SetWriteDeadline(time.Time{})

	session := realtime.NewSession(conn, user.ID, h.logger)
	h.logger.Info("socket connected", "user_id", user.ID, "session", session.ID())
	session.Serve(h.ctx, h.dispatcher)
	h.logger.Info("socket disconnected", "user_id", user.ID, "session", session.ID())
}

func originChecker(allowed []string) func(*http.Request) bool {
	hosts := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		hosts[strings.ToLower(origin)] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		_, ok := hosts[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}
