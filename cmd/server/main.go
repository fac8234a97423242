package main

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/avelith/pixelgram/backend/internal/router"
	"github.com/avelith/pixelgram/backend/pkg/config"
	"github.com/avelith/pixelgram/backend/pkg/firebase"
	"github.com/avelith/pixelgram/backend/pkg/logger"
	"github.com/avelith/pixelgram/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("Failed to initialize databases")
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase (optional; firebase-login is unavailable without it)
	var firebaseAuthClient *auth.Client
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("Failed to initialize Firebase")
		}
		firebaseAuthClient = firebaseApp.AuthClient
	} else {
		logger.L().Warn().Msg("Firebase credentials not configured, firebase-login disabled")
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, db.Postgres, db.Mongo, firebaseAuthClient)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
