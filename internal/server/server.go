// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, and routes,
// and decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on which routes
//   - How the server starts and stops gracefully
//
// This is the "composition root": every dependency is built in New, rather
// than scattered across the codebase.
//
//	config.Config → sqlite.DB ─┬→ SessionService ──→ AuthHandler, LoadSession
//	                           ├→ Settings/Shop/XP/TicketService → Economy/XP/TicketHandler
//	                           └→ HealthHandler
//	config.Bot    → botapi.Client → DashboardService → DashboardHandler
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/guild-dashboard/internal/auth"
	"github.com/sakif/guild-dashboard/internal/botapi"
	"github.com/sakif/guild-dashboard/internal/config"
	"github.com/sakif/guild-dashboard/internal/handler"
	"github.com/sakif/guild-dashboard/internal/middleware"
	sqliteRepo "github.com/sakif/guild-dashboard/internal/repository/sqlite"
	"github.com/sakif/guild-dashboard/internal/service"
)

// purgeInterval is how often expired session rows are swept.
const purgeInterval = time.Hour

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection and closes it on shutdown.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	sessions *service.SessionService // nil when SESSION_SECRET is missing or too short
}

// New opens the database and wires every layer.
//
// Missing optional configuration degrades instead of failing:
//   - no SESSION_SECRET: nobody can log in, guild routes answer 401
//   - no Discord credentials: the login routes answer 503
//   - no bot URL/token: every read serves its static default
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	tokens, err := auth.NewTokenService(cfg.Session.Secret)
	if err != nil {
		logger.Warn("sessions disabled", slog.String("reason", err.Error()))
	} else {
		s.sessions = service.NewSessionService(db, db, tokens, cfg.Session.TTL, cfg.Discord.AdminIDs, logger)
	}

	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: assigns a unique id to each request (for tracing)
//  2. RealIP: extracts the real client IP from proxy headers
//  3. Logger: logs each request with its id and timing
//  4. Recoverer: turns a panic into a 500 JSON body
//  5. SecurityHeaders and CORS: apply to every response, errors included
//  6. LoadSession: resolves the cookie once per request
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recoverer(s.logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(s.config.Server.AllowedOrigins))

	var sessions handler.SessionManager
	if s.sessions != nil {
		r.Use(auth.LoadSession(s.sessions))
		sessions = s.sessions
	}

	// === Services ===
	// *sqliteRepo.DB implements every repository interface.
	settingsSvc := service.NewSettingsService(s.db, s.logger)
	shopSvc := service.NewShopService(s.db, s.logger)
	xpSvc := service.NewXPService(s.db, s.logger)
	ticketSvc := service.NewTicketService(s.db, s.logger)
	dashSvc := service.NewDashboardService(botapi.New(s.config.Bot, s.logger), s.logger)

	// === Handlers ===
	var provider handler.IdentityProvider
	if s.config.Discord.Enabled() && s.sessions != nil {
		provider = auth.NewDiscordProvider(s.config.Discord.ClientID, s.config.Discord.ClientSecret, s.config.Discord.RedirectURL)
	} else {
		s.logger.Warn("Discord login disabled: client credentials or session secret missing")
	}
	authHandler := handler.NewAuthHandler(provider, sessions, s.config.Session.URL, s.config.Server.Production(), s.logger)
	dashHandler := handler.NewDashboardHandler(dashSvc, s.logger)
	economyHandler := handler.NewEconomyHandler(settingsSvc, shopSvc, s.logger)
	xpHandler := handler.NewXPHandler(settingsSvc, xpSvc, s.logger)
	ticketHandler := handler.NewTicketHandler(ticketSvc, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/discord/login", authHandler.HandleDiscordLogin)
			r.Get("/discord/callback", authHandler.HandleDiscordCallback)
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/session", authHandler.HandleSession)
		})

		// The health handler checks the method itself so it can answer 405 in JSON.
		r.Handle("/health/db", healthHandler)

		// Everything below needs a session. Mutations additionally need guild
		// admin rights, which the services check.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession)

			r.Get("/bot/status", dashHandler.HandleBotStatus)
			r.Get("/guilds", dashHandler.HandleGuilds)

			r.Route("/guilds/{guildId}", func(r chi.Router) {
				r.Get("/economy", dashHandler.HandleEconomy)
				r.Get("/economy/settings", economyHandler.HandleGetSettings)
				r.Put("/economy/settings", economyHandler.HandleUpdateSettings)
				r.Get("/economy/shop", economyHandler.HandleListItems)
				r.Post("/economy/shop", economyHandler.HandleCreateItem)
				r.Patch("/economy/shop/{itemId}", economyHandler.HandleUpdateItem)
				r.Delete("/economy/shop/{itemId}", economyHandler.HandleDeleteItem)

				r.Get("/xp", dashHandler.HandleXP)
				r.Get("/xp/settings", xpHandler.HandleGetSettings)
				r.Put("/xp/settings", xpHandler.HandleUpdateSettings)
				r.Post("/xp/reset", xpHandler.HandleReset)

				r.Get("/members", dashHandler.HandleMembers)
				r.Get("/moderation", dashHandler.HandleModeration)
				r.Get("/logs", dashHandler.HandleLogs)
				r.Get("/giveaways", dashHandler.HandleGiveaways)

				r.Get("/tickets/panels", ticketHandler.HandleListPanels)
				r.Post("/tickets/panels", ticketHandler.HandleCreatePanel)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"route not found"}` + "\n"))
	})
}

// runPurge sweeps expired sessions now and then every purgeInterval until ctx ends.
func (s *Server) runPurge(ctx context.Context) {
	if s.sessions == nil {
		return
	}
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		if _, err := s.sessions.PurgeExpired(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("session purge failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Stop the session purge loop
//  4. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	purgeCtx, stopPurge := context.WithCancel(context.Background())
	purgeDone := make(chan struct{})
	go func() {
		defer close(purgeDone)
		s.runPurge(purgeCtx)
	}()
	defer func() {
		stopPurge()
		<-purgeDone
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("env", s.config.Server.Env),
			slog.String("database", s.config.Database.Path),
			slog.Bool("botAPI", s.config.Bot.Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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

// Close releases the database. Only needed when Start was never called.
func (s *Server) Close() error {
	return s.db.Close()
}
