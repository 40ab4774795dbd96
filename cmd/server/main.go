// Package main is the API server entry point. It initializes the
// databases, wires the dependency graph, starts the stale-lock sweeper
// and serves HTTP.
package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"kobopay/internal/config"
	"kobopay/internal/repositories"
	"kobopay/internal/routes"
	"kobopay/internal/services/ledger"
)

func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("failed to initialize databases: %v", err)
	}

	defer func() {
		if repositories.DB != nil {
			if sqlDB, err := repositories.DB.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					log.Printf("failed to close database connection: %v", err)
				}
			}
		}
		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				log.Printf("failed to close redis connection: %v", err)
			}
		}
	}()

	// Background sweep reclaiming wallet reservations whose holder
	// never unlocked them.
	sweepInterval := config.GetDurationEnv("LOCK_SWEEP_INTERVAL", 5*time.Minute)
	lockTimeout := config.GetDurationEnv("WALLET_LOCK_TIMEOUT", ledger.DefaultLockTimeout)
	sweeper := ledger.NewService(
		repositories.NewLedgerRepository(repositories.DB),
		repositories.CacheService,
		&ledger.NoopMetricsCollector{},
		ledger.Config{LockTimeout: lockTimeout},
	)
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := sweeper.ReclaimStaleLocks(context.Background()); err != nil {
				log.Printf("stale lock sweep failed: %v", err)
			}
		}
	}()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Signature, X-Timestamp",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// The gateway retries webhooks on its own; only human-facing
	// endpoints are rate limited.
	for _, path := range []string{"/api/payments/initiate", "/api/auth/login"} {
		app.Use(path, limiter.New(limiter.Config{
			Max:        config.GetIntEnv("RATE_LIMIT_MAX", 10),
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "too many requests, please try again later",
				})
			},
		}))
	}

	routes.SetupRoutes(app, repositories.DB)

	log.Fatal(app.Listen(":" + config.GetEnv("PORT", "3000")))
}
