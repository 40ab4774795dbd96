// Package routes wires repositories, services and handlers onto the
// Fiber app.
package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"kobopay/internal/config"
	"kobopay/internal/handlers"
	"kobopay/internal/middleware"
	"kobopay/internal/models"
	"kobopay/internal/repositories"
	"kobopay/internal/services/auth"
	"kobopay/internal/services/gateway"
	"kobopay/internal/services/intent"
	"kobopay/internal/services/ledger"
	"kobopay/internal/services/webhook"
)

// SetupRoutes builds the dependency graph and registers all routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	ledgerRepo := repositories.NewLedgerRepository(db)
	intentRepo := repositories.NewIntentRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	operatorRepo := repositories.NewOperatorRepository(db)

	ledgerService := ledger.NewService(
		ledgerRepo,
		repositories.CacheService,
		&ledger.NoopMetricsCollector{},
		ledger.Config{
			LockTimeout: config.GetDurationEnv("WALLET_LOCK_TIMEOUT", ledger.DefaultLockTimeout),
		},
	)
	intentService := intent.NewService(intentRepo)

	webhookSecret := config.GetEnv("GATEWAY_WEBHOOK_SECRET", "")
	webhookService := webhook.NewService(webhookSecret, intentService, ledgerService, webhookRepo)

	var gw gateway.Gateway
	if url := config.GetEnv("GATEWAY_URL", ""); url != "" {
		gw = gateway.NewHTTPGateway(url, config.GetEnv("GATEWAY_SECRET", ""))
	} else {
		// No gateway configured; accept charges locally. Development
		// only, never production.
		gw = gateway.NewSandbox()
	}

	authService := auth.NewService(operatorRepo)

	paymentHandler := handlers.NewPaymentHandler(intentService, gw)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	walletHandler := handlers.NewWalletHandler(ledgerService)
	adminHandler := handlers.NewAdminHandler(intentService, ledgerService)
	authHandler := handlers.NewAuthHandler(authService)

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")

	// Public surface
	api.Post("/auth/login", authHandler.Login)
	api.Post("/payments/initiate", paymentHandler.Initiate)
	api.Get("/payments/:id", paymentHandler.GetStatus)

	// Gateway callbacks
	api.Post("/webhooks/momo", webhookHandler.HandleGatewayWebhook)

	// Operator surface
	admin := api.Group("/admin", middleware.RequireOperator())
	admin.Put("/payments/:id/status",
		middleware.RequirePermission(models.PermissionPaymentOverride),
		adminHandler.UpdateIntentStatus)
	admin.Post("/wallets/credit",
		middleware.RequirePermission(models.PermissionWalletCredit),
		adminHandler.CreditWallet)
	admin.Get("/users/:id/balances",
		middleware.RequirePermission(models.PermissionWalletRead),
		walletHandler.GetBalances)
	admin.Get("/users/:id/transactions",
		middleware.RequirePermission(models.PermissionWalletRead),
		walletHandler.GetTransactions)
}
