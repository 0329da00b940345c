package services

import (
	"context"
	"testing"
	"time"

	"loanlink/internal/adapters/events"
	"loanlink/internal/adapters/persistence/models"
	"loanlink/internal/adapters/persistence/repositories"
	"loanlink/internal/core/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var decisionRoles = []domain.Role{domain.RoleManager, domain.RoleAdmin}

// fixture wires every service on an in-memory sqlite database
type fixture struct {
	accounts  repositories.AccountRepository
	products  repositories.ProductRepository
	apps      repositories.ApplicationRepository
	registry  *UserRegistry
	gate      *RoleGate
	catalog   *LoanCatalog
	lifecycle *LoanLifecycle
	events    *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	f := &fixture{
		accounts: repositories.NewAccountRepository(db),
		products: repositories.NewProductRepository(db),
		apps:     repositories.NewApplicationRepository(db),
		events:   &events.Recorder{},
	}
	f.registry = NewUserRegistry(f.accounts, []domain.Role{domain.RoleBorrower})
	f.gate = NewRoleGate(f.registry)
	f.catalog = NewLoanCatalog(f.products)
	f.lifecycle = NewLoanLifecycle(f.apps, f.products, NewOwnershipFilter(decisionRoles), f.events)
	return f
}

// register creates an account with the given role, bypassing the self-registration allow list
func (f *fixture) register(t *testing.T, email string, role domain.Role) *domain.Account {
	t.Helper()
	a, _, err := f.registry.Register(context.Background(), RegisterInput{Email: email})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	if role != domain.RoleBorrower {
		if a, err = f.registry.Elevate(context.Background(), a.ID, role); err != nil {
			t.Fatalf("Elevate(%s): %v", email, err)
		}
	}
	return a
}

func (f *fixture) product(t *testing.T, title string) *domain.LoanProduct {
	t.Helper()
	p, err := f.catalog.Create(context.Background(), CreateProductInput{Title: title, MaxAmount: 10000})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	return p
}

func (f *fixture) submit(t *testing.T, owner string, productID string) *domain.LoanApplication {
	t.Helper()
	app, err := f.lifecycle.Submit(context.Background(), identity(owner), SubmitInput{ProductID: productID, Amount: 500})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return app
}

func identity(email string) domain.VerifiedIdentity {
	return domain.VerifiedIdentity{Email: email, Subject: "sub-" + email}
}

// fixedClock returns a clock that advances one second per call
func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}
