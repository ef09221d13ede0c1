// Portfolio server: content API, visitor counter, contact form and assistant.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/portfolio/internal/agent"
	"github.com/ashureev/portfolio/internal/api"
	"github.com/ashureev/portfolio/internal/chat"
	"github.com/ashureev/portfolio/internal/config"
	"github.com/ashureev/portfolio/internal/contact"
	"github.com/ashureev/portfolio/internal/content"
	"github.com/ashureev/portfolio/internal/grounding"
	"github.com/ashureev/portfolio/internal/identity"
	"github.com/ashureev/portfolio/internal/janitor"
	"github.com/ashureev/portfolio/internal/middleware"
	"github.com/ashureev/portfolio/internal/store"
	"github.com/ashureev/portfolio/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "content_source", cfg.Content.Source)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	source, err := content.FromConfig(cfg.Content)
	if err != nil {
		slog.Error("Failed to initialize content source", "error", err)
		os.Exit(1)
	}
	contentClient := content.NewClient(source, logger)
	groundingCtx := grounding.NewContext(contentClient, logger)

	// Initialize the assistant. Without a credential every open reports the
	// configuration error instead of the routes disappearing.
	var backend agent.Backend
	if cfg.AssistantEnabled() {
		gemini, err := agent.NewGeminiBackend(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if err != nil {
			slog.Error("Failed to initialize assistant backend", "error", err)
			os.Exit(1)
		}
		backend = gemini
		slog.Info("Assistant backend initialized", "model", cfg.Gemini.Model)
	} else {
		slog.Warn("GEMINI_API_KEY not set, assistant will report a configuration error")
	}

	sessions := chat.NewSessions(repo, chat.Options{
		MaxMessages: cfg.Chat.MaxMessages,
		Timeout:     cfg.Chat.SessionTimeout,
		Logger:      logger,
	})
	agentService := agent.NewService(agent.NewGateway(backend, logger), groundingCtx, sessions, logger)

	conversationLogger, err := agent.NewConversationLogger(agent.ConversationLogConfig{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}

	// Initialize handlers.
	agentHandler := agent.NewHandler(agentService, agent.HandlerConfig{
		RequestsPerWindow:  cfg.RateLimit.RequestsPerWindow,
		WindowDuration:     cfg.RateLimit.WindowDuration,
		MaxRequestBodySize: cfg.Chat.MaxRequestBodySize,
	}, conversationLogger)
	defer agentHandler.Close()
	wsHandler := agent.NewWebSocketHandler(agentHandler, cfg.FrontendURL, cfg.IsDevelopment())

	baseHandler := api.NewHandler(repo, contentClient, cfg.IsDevelopment())
	healthHandler := api.NewHealthHandler(repo, groundingCtx)
	contactHandler := api.NewContactHandler(contact.NewService(contact.NewOutboxMailer(repo), logger))

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(middleware.Origins(cfg.FrontendURL, cfg.IsDevelopment())))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterHealth(r)
	api.NewPortfolioHandler(baseHandler).RegisterRoutes(r)
	api.NewVisitorHandler(baseHandler).RegisterRoutes(r)
	contactHandler.RegisterRoutes(r)
	agentHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/agent", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Note: SSE replies stream for as long as the backend takes, so there is no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background workers.
	janitor.New(repo, janitor.Options{
		TTL:      cfg.Chat.SessionTimeout,
		Interval: cfg.SweepInterval,
		Evicter:  agentService,
		Logger:   logger,
	}).Start(ctx)

	if cfg.Content.Watch && cfg.Content.Source == config.ContentSourceFile {
		watcher := content.NewWatcher(cfg.Content.File, content.DefaultDebounce, func() {
			groundingCtx.Reset()
			slog.Info("Portfolio file changed, assistant context will be refetched", "path", cfg.Content.File)
		}, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				slog.Error("Content watcher stopped", "error", err)
			}
		}()
	}

	if cfg.GRPCHealthAddr != "" {
		if _, err := api.StartGRPCHealth(ctx, cfg.GRPCHealthAddr, healthHandler, 30*time.Second); err != nil {
			slog.Error("Failed to start gRPC health server", "error", err)
			os.Exit(1)
		}
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
