package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loanlink/internal/adapters/cache"
	"loanlink/internal/adapters/events"
	"loanlink/internal/adapters/http/middleware"
	"loanlink/internal/adapters/http/routes"
	"loanlink/internal/config"
	"loanlink/internal/core/services"
	"loanlink/internal/pkg/jwt"
	"loanlink/internal/pkg/obs"

	"github.com/gofiber/fiber/v2"

	_ "loanlink/docs" // Swagger docs
)

const version = "1.0.0"

// @title LoanLink API
// @version 1.0
// @description Loan catalog and application lifecycle API

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity token.

// openStore is replaced in tests to observe the store lifecycle
var openStore = config.OpenStore

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// run wires the server and blocks until it stops. Startup failures are
// returned so that every resource opened so far is released.
func run(cfg *config.Config) error {
	ctx := context.Background()

	// Connect to the store (runs migrations for SQL drivers)
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("❌ Error closing store: %v", err)
		}
	}()

	// Catalog cache (optional)
	products := store.Products
	if cfg.Redis.Addr != "" {
		rdb, err := cache.OpenRedis(cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, catalog cache disabled: %v", err)
		} else {
			defer rdb.Close()
			products = cache.NewCatalogCache(products, rdb, cfg.Redis.CacheTTL)
			log.Printf("✅ Catalog cache enabled [%s]", cfg.Redis.Addr)
		}
	}

	// Lifecycle events (optional)
	publisher, closePublisher := newPublisher(cfg)
	defer func() {
		if err := closePublisher(); err != nil {
			log.Printf("❌ Error closing event publisher: %v", err)
		}
	}()

	// Tracing (optional)
	if cfg.OTelEndpoint != "" {
		shutdown, err := obs.InitTracer(ctx, "loanlink", version, cfg.OTelEndpoint, cfg.AppMode)
		if err != nil {
			log.Printf("⚠️ Tracing disabled: %v", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(sctx)
			}()
			log.Printf("✅ Tracing enabled [%s]", cfg.OTelEndpoint)
		}
	}

	// Identity verification
	validator, err := newValidator(cfg)
	if err != nil {
		return fmt.Errorf("failed to configure identity verification: %w", err)
	}
	verifier := services.WithTimeout(services.NewJWTVerifier(validator), cfg.Auth.VerifyTimeout)

	// Initialize services
	registry := services.NewUserRegistry(store.Accounts, cfg.Roles.SelfRegister)
	catalog := services.NewLoanCatalog(products)
	lifecycle := services.NewLoanLifecycle(store.Applications, products,
		services.NewOwnershipFilter(cfg.Roles.Decision), publisher)

	// Seed admin account and development catalog
	if err := config.NewSeeder(cfg, registry, catalog).Run(ctx); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	// Pending digest job
	if cfg.PendingDigestCron != "" {
		digest := services.NewPendingDigestJob(store.Applications)
		if err := digest.Start(cfg.PendingDigestCron); err != nil {
			return fmt.Errorf("failed to start pending digest: %w", err)
		}
		defer digest.Stop()
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "LoanLink API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, routes.Deps{
		Config:    cfg,
		Store:     store,
		Verifier:  verifier,
		Registry:  registry,
		Catalog:   catalog,
		Lifecycle: lifecycle,
	})

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// newValidator prefers the RS256 public key when both key sources are set
func newValidator(cfg *config.Config) (*jwt.Validator, error) {
	if cfg.Auth.PublicKeyFile != "" {
		pem, err := os.ReadFile(cfg.Auth.PublicKeyFile)
		if err != nil {
			return nil, err
		}
		return jwt.NewRSAValidator(pem, cfg.Auth.Issuer, cfg.Auth.Audience)
	}
	return jwt.NewHMACValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience), nil
}

// newPublisher connects to the broker, or returns a no-op publisher when AMQP is off
func newPublisher(cfg *config.Config) (services.EventPublisher, func() error) {
	if cfg.AMQP.URL == "" {
		return events.Noop{}, events.Noop{}.Close
	}
	pub, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		log.Printf("⚠️ Broker unavailable, lifecycle events disabled: %v", err)
		return events.Noop{}, events.Noop{}.Close
	}
	log.Printf("✅ Publishing lifecycle events to exchange %q", cfg.AMQP.Exchange)
	return pub, pub.Close
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
