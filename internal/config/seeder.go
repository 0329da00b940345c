package config

import (
	"context"
	"fmt"
	"log"

	"loanlink/internal/core/domain"
	"loanlink/internal/core/services"
)

// Seeder handles startup seeding through the same services the API uses
type Seeder struct {
	cfg      *Config
	registry *services.UserRegistry
	catalog  *services.LoanCatalog
}

// NewSeeder creates a new seeder instance
func NewSeeder(cfg *Config, registry *services.UserRegistry, catalog *services.LoanCatalog) *Seeder {
	return &Seeder{cfg: cfg, registry: registry, catalog: catalog}
}

// Run executes all seeders. Every step is safe to repeat.
func (s *Seeder) Run(ctx context.Context) error {
	log.Println("🌱 Running seeders...")

	if err := s.seedAdmin(ctx); err != nil {
		return fmt.Errorf("admin seeder: %w", err)
	}

	if s.cfg.IsDev() && s.cfg.SeedCatalog {
		if err := s.seedCatalog(ctx); err != nil {
			log.Printf("⚠️ Catalog seeder skipped: %v", err)
		}
	}

	log.Println("✅ Seeding completed")
	return nil
}

// seedAdmin registers SEED_ADMIN_EMAIL and makes it an admin
func (s *Seeder) seedAdmin(ctx context.Context) error {
	if s.cfg.SeedAdminEmail == "" {
		return nil
	}

	account, _, err := s.registry.Register(ctx, services.RegisterInput{
		Email: s.cfg.SeedAdminEmail,
		Name:  "Administrator",
	})
	if err != nil {
		return err
	}
	if account.Role == domain.RoleAdmin {
		return nil
	}

	if _, err := s.registry.Elevate(ctx, account.ID, domain.RoleAdmin); err != nil {
		return err
	}
	log.Printf("✅ Admin account seeded: %s", account.Email)
	return nil
}

// sampleProducts is the development catalog
var sampleProducts = []services.CreateProductInput{
	{
		Title:        "Personal Loan",
		Description:  "General purpose loan for members",
		Category:     "personal",
		InterestRate: 6.50,
		MaxAmount:    300000,
	},
	{
		Title:        "Emergency Loan",
		Description:  "Fast approval for emergencies, up to 100,000",
		Category:     "emergency",
		InterestRate: 6.00,
		MaxAmount:    100000,
	},
	{
		Title:        "Secured Loan",
		Description:  "Lower rate for members with collateral",
		Category:     "secured",
		InterestRate: 5.50,
		MaxAmount:    2000000,
	},
	{
		Title:        "Home Loan",
		Description:  "Purchase or renovate a home, terms up to 30 years",
		Category:     "mortgage",
		InterestRate: 4.25,
		MaxAmount:    5000000,
	},
}

// seedCatalog inserts sample products into an empty catalog
func (s *Seeder) seedCatalog(ctx context.Context) error {
	count, err := s.catalog.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, p := range sampleProducts {
		created, err := s.catalog.Create(ctx, p)
		if err != nil {
			return err
		}
		log.Printf("   Created product: %s", created.Title)
	}
	return nil
}
