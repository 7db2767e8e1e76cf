package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"invoice-automation/backend/internal/app"
	"invoice-automation/backend/internal/auth"
	"invoice-automation/backend/internal/billing"
	"invoice-automation/backend/internal/config"
	"invoice-automation/backend/internal/middleware"
	"invoice-automation/backend/internal/settings"
	"invoice-automation/backend/pkg/security"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, ".env")
	if err != nil {
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger := config.NewLogger(cfg.Logging)
	defer logger.Sync()

	ctx := context.Background()
	components, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialise dependencies", zap.Error(err))
	}
	defer components.Close(ctx)

	// Setup Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.Server.AllowedOrigins),
	)

	var tokens *auth.TokenService
	if cfg.Security.JWTSecret != "" {
		tokens = auth.NewTokenService(cfg.Security.JWTSecret, cfg.Security.TokenTTL, cfg.Security.Issuer).
			WithRevocationStore(components.Cache)
	} else {
		logger.Warn("JWT secret not configured, API routes are unauthenticated")
	}
	requireAuth := auth.Middleware(tokens, logger)

	billingHandler := billing.NewHandler(components.Billing, logger.Named("http")).
		WithLinkSigner(security.NewLinkSigner(cfg.Security.LinkSecret))

	// Register Routes
	api := router.Group("/api/v1")
	if tokens != nil {
		authHandler := auth.NewHandler(auth.NewService(auth.NewMongoUserRepository(components.DB), tokens), logger)
		auth.RegisterRoutes(api, authHandler, requireAuth)
	}
	protected := api.Group("")
	protected.Use(requireAuth)
	billingHandler.RegisterRoutes(protected)
	settings.NewHandler(settings.NewService(components.Repo), logger).RegisterRoutes(protected)
	billingHandler.RegisterPublicRoutes(router)

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
