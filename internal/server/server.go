// Package server wires the application together: database, services,
// handlers, middleware, and routes, plus the HTTP lifecycle.
//
// This is the composition root — every dependency is assembled here, in one
// place, rather than scattered across the codebase. main.go stays minimal:
// read config, build the server, start it.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/piprotocol/miniapp-backend/internal/auth"
	"github.com/piprotocol/miniapp-backend/internal/bot"
	"github.com/piprotocol/miniapp-backend/internal/config"
	"github.com/piprotocol/miniapp-backend/internal/handler"
	"github.com/piprotocol/miniapp-backend/internal/middleware"
	sqliteRepo "github.com/piprotocol/miniapp-backend/internal/repository/sqlite"
	"github.com/piprotocol/miniapp-backend/internal/service"
)

// Server owns the router, the database connection, and the optional bot
// relay. The database is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency chain:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below the handler layer
// ever sees HTTP. The relay may be nil — the webhook endpoint then accepts
// and drops updates.
func New(cfg config.Config, logger *slog.Logger, relay *bot.Relay) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(relay); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for tests that drive the full stack
// through httptest without a listening socket.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start does this itself; Close exists for
// callers that never reach Start, such as tests.
func (s *Server) Close() error {
	return s.db.Close()
}

func (s *Server) setupRoutes(relay *bot.Relay) error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	adminKey, err := auth.NewAdminKeyService(s.config.AdminKeyHash)
	if err != nil {
		return fmt.Errorf("creating admin key service: %w", err)
	}

	// Services share the user repository so linking, crediting, and
	// provisioning all see the same rows.
	users := service.NewUserService(s.db.Users(), s.logger)
	referrals := service.NewReferralService(s.db.Users(), users, s.logger)
	balances := service.NewBalanceService(s.db.Users(), s.db.Transactions(), users, s.logger)
	news := service.NewNewsService(s.db.News(), s.logger)

	userHandler := handler.NewUserHandler(users, referrals, balances, tokens, s.config.BotUsername, s.logger)
	miningHandler := handler.NewMiningHandler(balances, s.logger)
	referralHandler := handler.NewReferralHandler(referrals, s.logger)
	newsHandler := handler.NewNewsHandler(news, adminKey, s.logger)
	webhookHandler := handler.NewWebhookHandler(relay, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Post("/webhook", webhookHandler.HandleUpdate)

	s.router.Route("/api", func(r chi.Router) {
		// Public: the mini-app hits these before it holds a token.
		r.Post("/register", userHandler.HandleRegister)
		r.Post("/referral/register", referralHandler.HandleRegister)
		r.Post("/referral/stats", referralHandler.HandleStats)
		r.Get("/news", newsHandler.HandleList)
		r.Post("/news", newsHandler.HandleCreate)

		// Authenticated: identity comes from the JWT, not the body.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/profile", userHandler.HandleProfile)
			r.Post("/mine", miningHandler.HandleMine)
			r.Post("/claim", miningHandler.HandleClaim)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
