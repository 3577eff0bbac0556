// Package main is the entry point for the NEXUS API server.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"time"

	"nexus/internal/config"
	"nexus/internal/logging"
	"nexus/internal/repositories"
	"nexus/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	logger := logging.Init(
		config.GetEnv("ENV", "development"),
		config.GetEnv("LOG_LEVEL", "info"),
	)
	defer logger.Sync()

	if err := repositories.InitDB(); err != nil {
		logger.Fatal("database initialization failed", zap.Error(err))
	}
	defer func() {
		if repositories.DB != nil {
			if sqlDB, err := repositories.DB.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					logger.Warn("failed to close database connection", zap.Error(err))
				}
			}
		}
		if repositories.RedisClient != nil {
			if err := repositories.RedisClient.Close(); err != nil {
				logger.Warn("failed to close redis connection", zap.Error(err))
			}
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:      "NEXUS",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	if !config.IsProduction() {
		app.Use(fiberlogger.New())
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	app.Use("/api/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	if err := routes.SetupRoutes(app, repositories.DB, repositories.RedisClient, logger); err != nil {
		logger.Fatal("route setup failed", zap.Error(err))
	}

	addr := ":" + config.GetEnv("PORT", "8000")
	logger.Info("starting server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
