// Package routes defines the API routing configuration.
// It wires repositories, services and handlers, and registers all HTTP
// routes including middleware requirements.
package routes

import (
	"strings"

	"nexus/internal/config"
	"nexus/internal/handlers"
	"nexus/internal/middleware"
	"nexus/internal/models"
	"nexus/internal/repositories"
	"nexus/internal/services/alert"
	"nexus/internal/services/anomaly"
	"nexus/internal/services/audit"
	"nexus/internal/services/auth"
	"nexus/internal/services/dashboard"
	"nexus/internal/services/risk"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes. It fails when a rule
// or band table does not validate; the server must not start with a
// malformed scoring configuration.
func SetupRoutes(app *fiber.App, db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) error {
	// Repositories
	auditRepo := repositories.NewAuditRepository(db)
	baselineRepo := repositories.NewBaselineRepository(db)
	userRepo := repositories.NewUserRepository(db)
	alertCache := repositories.NewAlertCache(redisClient)

	// Auth
	authService := auth.NewService(userRepo, logger)
	authMiddleware := middleware.NewAuthMiddleware(func(userID uint) (int, error) {
		user, err := userRepo.GetByID(userID)
		if err != nil {
			return 0, err
		}
		return user.TokenVersion, nil
	}, logger)

	// Anomaly model; load failure leaves the adapter in degraded mode.
	var model anomaly.Model
	if path := config.GetEnv("ANOMALY_MODEL_PATH", ""); path != "" {
		onnxModel, err := anomaly.LoadONNXModel(path)
		if err != nil {
			logger.Warn("anomaly model load failed, running degraded", zap.Error(err))
		} else {
			model = onnxModel
		}
	}
	anomalyAdapter := anomaly.NewAdapter(model, logger)

	// Alert fan-out
	broadcaster := alert.NewBroadcaster(alert.Config{}, logger)

	// Audit recorder, with the optional compliance feed
	var recorder audit.Recorder
	if brokers := config.GetEnv("KAFKA_BROKERS", ""); brokers != "" {
		writer := audit.NewKafkaWriter(
			strings.Split(brokers, ","),
			config.GetEnv("KAFKA_ALERTS_TOPIC", "fraud-alerts"),
			logger,
		)
		recorder = audit.NewRecorder(auditRepo, alertCache, writer, logger)
	} else {
		recorder = audit.NewRecorder(auditRepo, alertCache, nil, logger)
	}

	// Scoring pipeline
	baselines := risk.NewBaselineStore(baselineRepo, alertCache, logger)
	riskConfig := risk.Config{
		TransactionFlagThreshold: config.GetFloatEnv("FLAG_THRESHOLD_TRANSACTION", risk.DefaultTransactionFlagThreshold),
		TellerFlagThreshold:      config.GetFloatEnv("FLAG_THRESHOLD_TELLER", risk.DefaultTellerFlagThreshold),
		CheckFlagThreshold:       config.GetFloatEnv("FLAG_THRESHOLD_CHECK", risk.DefaultCheckFlagThreshold),
		CashFlagThreshold:        config.GetFloatEnv("FLAG_THRESHOLD_CASH", risk.DefaultCashFlagThreshold),
	}
	if lat := config.GetFloatEnv("BRANCH_LAT", 0); lat != 0 {
		riskConfig.BranchGeo = &models.Location{
			Latitude:  lat,
			Longitude: config.GetFloatEnv("BRANCH_LON", 0),
			Address:   config.GetEnv("BRANCH_ADDRESS", ""),
		}
	}
	riskService, err := risk.NewService(baselines, anomalyAdapter, broadcaster, recorder, riskConfig, logger)
	if err != nil {
		return err
	}

	dashboardService := dashboard.NewService(auditRepo, alertCache, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	fraudHandler := handlers.NewFraudHandler(riskService)
	operationalHandler := handlers.NewOperationalHandler(riskService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	alertsHandler := handlers.NewAlertsHandler(broadcaster, dashboardService)
	healthHandler := handlers.NewHealthHandler(func() bool { return model != nil })

	// Public routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.Health)

	api := app.Group("/api")
	api.Post("/login", authHandler.Login)
	api.Post("/refresh", authHandler.Refresh)

	authenticated := api.Group("/", authMiddleware.Handler)
	authenticated.Post("/logout", authHandler.Logout)

	fraud := authenticated.Group("/fraud")
	fraud.Post("/transactions/analyze", middleware.HasPermission(models.PermissionFraudAnalyze), fraudHandler.AnalyzeTransaction)
	fraud.Post("/checks/analyze", middleware.HasPermission(models.PermissionFraudAnalyze), fraudHandler.AnalyzeCheck)
	fraud.Get("/dashboard/summary", middleware.HasPermission(models.PermissionDashboardRead), dashboardHandler.Summary)
	fraud.Get("/alerts/recent", middleware.HasPermission(models.PermissionAlertsRead), alertsHandler.Recent)
	fraud.Get("/alerts/live", middleware.HasPermission(models.PermissionAlertsRead), alertsHandler.UpgradeRequired, alertsHandler.Live())

	operational := authenticated.Group("/operational")
	operational.Post("/teller/analyze", middleware.HasPermission(models.PermissionFraudAnalyze), operationalHandler.AnalyzeTeller)
	operational.Post("/cash/analyze", middleware.HasPermission(models.PermissionFraudAnalyze), operationalHandler.AnalyzeCash)
	operational.Post("/collusion/detect", middleware.HasPermission(models.PermissionFraudAnalyze), operationalHandler.DetectCollusion)
	operational.Put("/teller/:id/baseline", middleware.HasPermission(models.PermissionBaselineWrite), operationalHandler.UpdateBaseline)

	return nil
}
