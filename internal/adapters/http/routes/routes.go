package routes

import (
	"time"

	"loanlink/internal/adapters/http/handlers"
	"loanlink/internal/adapters/http/middleware"
	"loanlink/internal/config"
	"loanlink/internal/core/domain"
	"loanlink/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// catalogMaxAge is the browser cache lifetime of public catalog reads
const catalogMaxAge = 60 * time.Second

// Deps carries the wired services the routes are built from
type Deps struct {
	Config    *config.Config
	Store     handlers.HealthChecker
	Verifier  services.IdentityVerifier
	Registry  *services.UserRegistry
	Catalog   *services.LoanCatalog
	Lifecycle *services.LoanLifecycle
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps Deps) {
	cfg := deps.Config

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.Store, cfg.AppMode)
	userHandler := handlers.NewUserHandler(deps.Registry)
	loanHandler := handlers.NewLoanHandler(deps.Catalog)
	applicationHandler := handlers.NewLoanApplicationHandler(deps.Lifecycle, deps.Registry)

	auth := middleware.NewAuth(deps.Verifier)
	gate := services.NewRoleGate(deps.Registry)
	guards := guardSet{
		admin:     gate.Require(domain.RoleAdmin),
		elevation: gate.Require(cfg.Roles.Elevation...),
		decision:  gate.Require(cfg.Roles.Decision...),
		catalog:   gate.Require(cfg.Roles.Catalog...),
	}

	// Health check routes (no auth)
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Every API route is served at the root and under /api/v1
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	for _, router := range []fiber.Router{app, apiV1} {
		setupUserRoutes(router.Group("/users"), userHandler, auth, guards)
		setupLoanRoutes(router.Group("/loans"), loanHandler, auth, guards)
		setupApplicationRoutes(router.Group("/loan-applications", middleware.NoCacheHeaders()), applicationHandler, auth, guards)
	}
}

type guardSet struct {
	admin     services.Guard
	elevation services.Guard
	decision  services.Guard
	catalog   services.Guard
}

// setupUserRoutes configures registration and role management
func setupUserRoutes(router fiber.Router, h *handlers.UserHandler, auth *middleware.Auth, g guardSet) {
	router.Post("/", middleware.RegistrationRateLimiter(), h.Register)
	router.Get("/", auth.RequireRole(g.admin, h.ListUsers))
	router.Get("/role/:email", h.GetRole)
	router.Patch("/make-manager/:id", middleware.StrictRateLimiter(), auth.RequireRole(g.elevation, h.MakeManager))
	router.Patch("/:id/role", middleware.StrictRateLimiter(), auth.RequireRole(g.elevation, h.SetRole))
}

// setupLoanRoutes configures the product catalog
func setupLoanRoutes(router fiber.Router, h *handlers.LoanHandler, auth *middleware.Auth, g guardSet) {
	cache := middleware.CacheControl(catalogMaxAge)

	router.Get("/", cache, h.List)
	router.Get("/latest", cache, h.Latest)
	router.Get("/:id", cache, h.Get)
	router.Post("/", auth.RequireRole(g.admin, h.Create))
	router.Patch("/:id/approve", auth.RequireRole(g.catalog, h.Approve))
	router.Patch("/:id", auth.RequireRole(g.admin, h.Update))
}

// setupApplicationRoutes configures the application lifecycle
func setupApplicationRoutes(router fiber.Router, h *handlers.LoanApplicationHandler, auth *middleware.Auth, g guardSet) {
	router.Post("/", auth.Authenticated(h.Submit))
	router.Get("/mine", auth.Authenticated(h.Mine))
	router.Get("/pending", auth.RequireRole(g.decision, h.Pending))
	router.Get("/:id", auth.Authenticated(h.Get))
	router.Patch("/:id/decide", auth.RequireRole(g.decision, h.Decide))
	router.Delete("/:id", auth.Authenticated(h.Withdraw))
}
