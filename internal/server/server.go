package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jobportal/apiserver/config"
	"github.com/jobportal/apiserver/internal/auth"
	"github.com/jobportal/apiserver/internal/db"
	"github.com/jobportal/apiserver/internal/events"
	"github.com/jobportal/apiserver/internal/handlers"
	"github.com/jobportal/apiserver/internal/mq"
	"github.com/jobportal/apiserver/internal/pdf"
	"github.com/jobportal/apiserver/internal/realtime"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/internal/storage"
	"github.com/jobportal/apiserver/internal/store"
)

const (
	requestTimeout = 60 * time.Second
	// writeTimeout leaves room for a full PDF render inside requestTimeout.
	writeTimeout = requestTimeout + 15*time.Second
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	hub        *realtime.Hub
	mq         *mq.MQ
	logger     *slog.Logger
	// cancel stops the event forwarder and open sockets.
	cancel context.CancelFunc
}

// New wires the stores, services and routes and returns a Server ready to Start.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	srv := &Server{db: dbConn, logger: logger, cancel: cancel}
	fail := func(err error) (*Server, error) {
		srv.close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	jobRepo := store.NewJobRepository(dbConn)
	applicationRepo := store.NewApplicationRepository(dbConn)
	resumeRepo := store.NewResumeRepository(dbConn)
	chatRepo := store.NewChatRepository(dbConn)

	bus := events.NewBus(logger)
	events.RegisterLogSubscribers(bus, logger)

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		return fail(fmt.Errorf("open mq: %w", err))
	}
	if broker != nil {
		srv.mq = broker
		forwarder := events.NewForwarder(broker, cfg.MQ.TopicPrefix, cfg.MQ.QueueSize, logger)
		forwarder.Attach(bus)
		go forwarder.Run(runCtx)
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fail(fmt.Errorf("open storage: %w", err))
	}
	var files services.FileStore
	var uploads handlers.ObjectReader
	if objects != nil {
		files = objects
		uploads = objects
	}

	var google handlers.GoogleOAuth
	if client := auth.NewGoogleClient(cfg.Google); client != nil {
		google = client
	}

	tokens := auth.NewTokenService(cfg.Auth)
	renderer := pdf.NewRenderer(pdf.NewPlaywrightEngine(cfg.PDF), logger)
	if !cfg.PDF.SkipInstall {
		go func() {
			if err := pdf.InstallBrowsers(); err != nil {
				logger.Warn("chromium install failed, resume export unavailable", "error", err)
			}
		}()
	}

	userService := services.NewUserService(userRepo)
	authService := services.NewAuthService(userRepo, tokens, bus)
	jobService := services.NewJobService(jobRepo, applicationRepo)
	applicationService := services.NewApplicationService(applicationRepo, jobRepo, files, bus)
	resumeService := services.NewResumeService(resumeRepo, renderer)
	chatService := services.NewChatService(chatRepo, userRepo, bus)

	srv.hub = realtime.NewHub()
	dispatcher := realtime.NewDispatcher(srv.hub, chatService, logger)

	authMiddleware := handlers.RequireAuth(authService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		handlers.VerboseErrors(cfg.IsDevelopment()),
	)
	router.Get("/healthz", handlers.Healthz)
	// Sockets are long-lived and stay outside the request timeout.
	router.Handle("/socket", handlers.NewSocketHandler(runCtx, authService, dispatcher, cfg.AllowedOrigins, logger))

	router.Route("/api", func(r chi.Router) {
		r.Use(
			middleware.Timeout(requestTimeout),
			middleware.RequestSize(cfg.BodyLimitBytes),
		)
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, handlers.NewAuthHandler(authService, google, cfg.ClientURL, !cfg.IsDevelopment()), authMiddleware)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, handlers.NewUserHandler(userService, jobService, applicationService), authMiddleware)
		})
		r.Route("/jobs", func(r chi.Router) {
			handlers.JobRouter(r, handlers.NewJobHandler(jobService, applicationService), authMiddleware)
		})
		r.Route("/resumes", func(r chi.Router) {
			handlers.ResumeRouter(r, handlers.NewResumeHandler(resumeService), authMiddleware)
		})
		r.Route("/chat", func(r chi.Router) {
			handlers.ChatRouter(r, handlers.NewChatHandler(chatService), authMiddleware)
		})
		r.Route("/uploads", func(r chi.Router) {
			handlers.UploadRouter(r, handlers.NewUploadHandler(uploads), authMiddleware)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	srv.router = router
	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return srv, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, drains in-flight ones until ctx ends,
// then disconnects sockets and releases the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.hub.CloseAll()
	s.close()
	return err
}

func (s *Server) close() {
	s.cancel()
	if s.mq != nil {
		if err := s.mq.Close(); err != nil {
			s.logger.Warn("close mq", "error", err)
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
