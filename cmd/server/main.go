package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plantogether/api/internal/config"
	"github.com/plantogether/api/internal/database"
	"github.com/plantogether/api/internal/handler"
	"github.com/plantogether/api/internal/jobs"
	"github.com/plantogether/api/internal/middleware"
	"github.com/plantogether/api/internal/repository"
	"github.com/plantogether/api/internal/service"
	"github.com/plantogether/api/pkg/jwt"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	eventRepo := repository.NewEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize stream hub for real-time updates
	hub := service.NewStreamHub()
	defer hub.Close()

	// Initialize services
	tokenService := service.NewTokenService(service.TokenServiceConfig{
		JWTService: jwtService,
		TokenRepo:  tokenRepo,
	})

	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:     userRepo,
		TokenService: tokenService,
	})

	notificationService := service.NewNotificationService(notificationRepo, hub)

	eventService := service.NewEventService(service.EventServiceConfig{
		EventRepo:        eventRepo,
		NotificationRepo: notificationRepo,
		Hub:              hub,
	})

	calendarService := service.NewCalendarService(cfg.App.CalendarDomain, cfg.App.BaseURL)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   100, // 100 requests per minute
		Window: time.Minute,
		Burst:  20, // Allow bursts up to 20
	})
	defer rateLimiter.Stop()

	// Initialize idempotency store
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL:     24 * time.Hour,
		Cleanup: time.Hour,
	})
	defer idempotencyStore.Stop()

	// Background jobs
	deadlineNotifier := jobs.NewDeadlineNotifier(jobs.DeadlineNotifierConfig{
		Events:   eventRepo,
		Sink:     notificationService,
		Checker:  notificationRepo,
		CronSpec: cfg.Jobs.DeadlineCron,
		Window:   cfg.Jobs.DeadlineWindow,
	})
	if err := deadlineNotifier.Start(); err != nil {
		slog.Error("failed to start deadline notifier", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deadlineNotifier.Stop()

	tokenCleanup := jobs.NewTokenCleanup(tokenRepo, time.Hour)
	tokenCleanup.Start()
	defer tokenCleanup.Stop()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(authService)
	eventHandler := handler.NewEventHandler(eventService, calendarService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	streamHandler := handler.NewStreamHandler(hub)

	// Create router and register routes
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", healthHandler.Health)

	// Auth endpoints (public)
	mux.HandleFunc("POST /v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /v1/auth/refresh", authHandler.Refresh)

	// Auth endpoints (protected)
	authMiddleware := middleware.Auth(tokenService)
	optionalAuth := middleware.OptionalAuth(tokenService)
	adminMiddleware := middleware.AdminAuth(tokenService)
	mux.Handle("POST /v1/auth/logout", authMiddleware(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /v1/auth/me", authMiddleware(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /v1/auth/password", authMiddleware(http.HandlerFunc(authHandler.ChangePassword)))

	// User admin endpoints
	mux.Handle("PUT /v1/users/{userId}/role", adminMiddleware(http.HandlerFunc(authHandler.SetRole)))

	// Event endpoints
	mux.Handle("GET /v1/events", authMiddleware(http.HandlerFunc(eventHandler.ListEvents)))
	mux.Handle("POST /v1/events", authMiddleware(http.HandlerFunc(eventHandler.CreateEvent)))
	mux.Handle("GET /v1/events/{eventId}", authMiddleware(http.HandlerFunc(eventHandler.GetEvent)))
	mux.Handle("PATCH /v1/events/{eventId}", authMiddleware(http.HandlerFunc(eventHandler.UpdateEvent)))
	mux.Handle("DELETE /v1/events/{eventId}", authMiddleware(http.HandlerFunc(eventHandler.DeleteEvent)))

	// Share links resolve without an account
	mux.Handle("GET /v1/shared/{token}", optionalAuth(http.HandlerFunc(eventHandler.GetSharedEvent)))

	// Voting endpoints
	mux.Handle("GET /v1/events/{eventId}/votes", authMiddleware(http.HandlerFunc(eventHandler.GetVoteTally)))
	mux.Handle("POST /v1/events/{eventId}/votes/dates", authMiddleware(http.HandlerFunc(eventHandler.CastDateVote)))
	mux.Handle("DELETE /v1/events/{eventId}/votes/dates", authMiddleware(http.HandlerFunc(eventHandler.RemoveDateVote)))
	mux.Handle("POST /v1/events/{eventId}/votes/items", authMiddleware(http.HandlerFunc(eventHandler.CastItemVote)))
	mux.Handle("DELETE /v1/events/{eventId}/votes/items", authMiddleware(http.HandlerFunc(eventHandler.RemoveItemVote)))

	// Comment and RSVP endpoints
	mux.Handle("POST /v1/events/{eventId}/comments", authMiddleware(http.HandlerFunc(eventHandler.AddComment)))
	mux.Handle("PUT /v1/events/{eventId}/rsvp", authMiddleware(http.HandlerFunc(eventHandler.SubmitRSVP)))

	// Schedule and calendar endpoints
	mux.Handle("GET /v1/events/{eventId}/schedule", authMiddleware(http.HandlerFunc(eventHandler.GetSchedule)))
	mux.Handle("GET /v1/events/{eventId}/calendar", authMiddleware(http.HandlerFunc(eventHandler.DownloadCalendar)))

	// Notification endpoints
	mux.Handle("GET /v1/notifications", authMiddleware(http.HandlerFunc(notificationHandler.List)))
	mux.Handle("GET /v1/notifications/unread", authMiddleware(http.HandlerFunc(notificationHandler.UnreadCount)))
	mux.Handle("POST /v1/notifications/read", authMiddleware(http.HandlerFunc(notificationHandler.MarkAllRead)))
	mux.Handle("POST /v1/notifications/{notificationId}/read", authMiddleware(http.HandlerFunc(notificationHandler.MarkRead)))

	// SSE streaming endpoints
	mux.Handle("GET /v1/events/{eventId}/stream", authMiddleware(http.HandlerFunc(streamHandler.StreamEvent)))
	mux.Handle("GET /v1/stream", authMiddleware(http.HandlerFunc(streamHandler.StreamUser)))

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
		middleware.Idempotency(idempotencyStore),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
