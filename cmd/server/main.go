package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"studycards/internal/bank"
	"studycards/internal/config"
	"studycards/internal/database"
	"studycards/internal/handlers"
	"studycards/internal/logger"
	"studycards/internal/repository"
	"studycards/internal/security"
	"studycards/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer l.Sync()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg, l)
	if err != nil {
		l.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	l.Info("database connection established", zap.String("type", cfg.DatabaseType))

	if err := db.RunMigrations(); err != nil {
		l.Fatal("failed to run migrations", zap.Error(err))
	}

	l.Info("migrations completed successfully")

	if cfg.AdminPassHash == "" {
		l.Warn("ADMIN_PASS_HASH is not set, supervisor login is disabled")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	scoreRepo := repository.NewScoreRepository(db)

	// Initialize services
	tokens := security.NewTokenIssuer(cfg.TokenSecret, cfg.SessionDuration)
	authService := service.NewAuthService(userRepo, tokens, cfg, l)
	studyService := service.NewStudyService(bank.NewLoader(cfg.DataDir), scoreRepo, l)
	adminService := service.NewAdminService(userRepo, scoreRepo)
	backupService := service.NewBackupService(db, cfg.AdminUser, l)

	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	limiter := security.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	defer limiter.Stop()

	// Setup routes
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, handlers.Handlers{
		Middleware: handlers.NewMiddleware(authService, studyService, csrf, limiter, l),
		Auth:       handlers.NewAuthHandler(authService, studyService, csrf, l),
		Study:      handlers.NewStudyHandler(studyService, l),
		Admin:      handlers.NewAdminHandler(adminService, backupService, l),
	})

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.Logging(l, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background session cleanup
	go cleanupExpiredSessions(ctx, authService, studyService, l)

	go func() {
		l.Info("server starting", zap.String("addr", addr), zap.String("data_dir", cfg.DataDir))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	l.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error("graceful shutdown failed", zap.Error(err))
	}
}

// cleanupExpiredSessions periodically removes expired login sessions and the
// study sessions they held
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService, studyService *service.StudyService, l *zap.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := authService.CleanupExpiredSessions()
			if err != nil {
				l.Error("failed to clean up expired sessions", zap.Error(err))
				continue
			}
			studyService.End(expired...)
		}
	}
}
