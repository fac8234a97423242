package router

import (
	"firebase.google.com/go/v4/auth"
	"github.com/avelith/pixelgram/backend/internal/handlers"
	"github.com/avelith/pixelgram/backend/internal/middleware"
	"github.com/avelith/pixelgram/backend/internal/models"
	"github.com/avelith/pixelgram/backend/internal/repositories"
	"github.com/avelith/pixelgram/backend/internal/services"
	"github.com/avelith/pixelgram/backend/pkg/config"
	"github.com/avelith/pixelgram/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			logger.L().Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *auth.Client) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Notification{},
	)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("Failed to auto migrate models")
	}

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mgClient.Database("pixelgram"))

	// --- Initialize Services ---
	followService := services.NewFollowService(followRepo, userRepo, notificationRepo, cfg.TxTimeout)
	statsService := services.NewStatsService(userRepo, postRepo)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)
	api.GET("/users/search", userHandler.SearchUsers)

	// Follow routes
	followHandler := handlers.NewFollowHandler(followService)
	followHandler.RegisterFollowRoutes(api)

	// Stats routes
	statsHandler := handlers.NewStatsHandler(statsService)
	statsHandler.RegisterStatsRoutes(api)

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)

	logger.L().Info().Msg("All routes configured")
}
