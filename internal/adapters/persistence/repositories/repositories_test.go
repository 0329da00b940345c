package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"loanlink/internal/adapters/persistence/models"
	"loanlink/internal/core/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB creates an in-memory sqlite DB with all tables migrated.
// A single connection keeps every query on the same in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func makeApplication(id, owner string, appliedAt time.Time) *domain.LoanApplication {
	return &domain.LoanApplication{
		ID:         id,
		OwnerEmail: owner,
		ProductID:  "prod-1",
		Amount:     1500,
		Purpose:    "school fees",
		Details:    map[string]string{"income_source": "salary"},
		Status:     domain.StatusPending,
		AppliedAt:  appliedAt.UTC(),
	}
}

func TestAccount_CreateAndGet(t *testing.T) {
	repo := NewAccountRepository(openTestDB(t))
	ctx := context.Background()

	in := &domain.Account{ID: "acc-1", Email: "a@x.com", Name: "A", Role: domain.RoleBorrower}
	if err := repo.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	byEmail, err := repo.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail.ID != "acc-1" || byEmail.Role != domain.RoleBorrower {
		t.Errorf("unexpected account: %+v", byEmail)
	}

	byID, err := repo.GetByID(ctx, "acc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if byID.Email != "a@x.com" {
		t.Errorf("unexpected account: %+v", byID)
	}
}

func TestAccount_DuplicateEmail(t *testing.T) {
	repo := NewAccountRepository(openTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.Account{ID: "acc-1", Email: "a@x.com", Role: domain.RoleBorrower}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, &domain.Account{ID: "acc-2", Email: "a@x.com", Role: domain.RoleAdmin})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestAccount_NotFound(t *testing.T) {
	repo := NewAccountRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.GetByEmail(ctx, "nobody@x.com"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if err := repo.UpdateRole(ctx, "missing", domain.RoleManager); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound from UpdateRole, got %v", err)
	}
}

func TestAccount_UpdateRoleIdempotent(t *testing.T) {
	repo := NewAccountRepository(openTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.Account{ID: "acc-1", Email: "a@x.com", Role: domain.RoleBorrower}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := repo.UpdateRole(ctx, "acc-1", domain.RoleManager); err != nil {
			t.Fatalf("UpdateRole #%d: %v", i+1, err)
		}
	}
	got, _ := repo.GetByID(ctx, "acc-1")
	if got.Role != domain.RoleManager {
		t.Fatalf("role = %s, want manager", got.Role)
	}
}

func TestAccount_RejectsUnknownStoredRole(t *testing.T) {
	db := openTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	if err := db.Create(&models.Account{ID: "acc-x", Email: "x@x.com", Role: "superuser"}).Error; err != nil {
		t.Fatalf("raw insert: %v", err)
	}
	if _, err := repo.GetByID(ctx, "acc-x"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown role, got %v", err)
	}
}

func TestProduct_LatestOrdering(t *testing.T) {
	repo := NewProductRepository(openTestDB(t))
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"p1", "p2", "p3"} {
		p := &domain.LoanProduct{ID: id, Title: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	latest, err := repo.Latest(ctx, 2)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(latest) != 2 || latest[0].ID != "p3" || latest[1].ID != "p2" {
		t.Fatalf("unexpected latest order: %v", ids(latest))
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("Count = %d, %v", count, err)
	}
}

func TestProduct_UpdateAndApprove(t *testing.T) {
	repo := NewProductRepository(openTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.LoanProduct{ID: "p1", Title: "Old"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "New"
	if err := repo.Update(ctx, "p1", ProductPatch{Title: &title}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	first := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.MarkApproved(ctx, "p1", first); err != nil {
		t.Fatalf("MarkApproved: %v", err)
	}
	if err := repo.MarkApproved(ctx, "p1", first.Add(time.Hour)); err != nil {
		t.Fatalf("MarkApproved again: %v", err)
	}

	got, err := repo.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "New" || !got.Approved || got.ApprovedAt == nil || !got.ApprovedAt.Equal(first) {
		t.Fatalf("unexpected product: %+v", got)
	}

	if err := repo.MarkApproved(ctx, "missing", first); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if err := repo.Update(ctx, "missing", ProductPatch{Title: &title}); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestApplication_FindScopesAndOrders(t *testing.T) {
	repo := NewApplicationRepository(openTestDB(t))
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	fixtures := []*domain.LoanApplication{
		makeApplication("a1", "a@x.com", base),
		makeApplication("a2", "b@x.com", base.Add(time.Minute)),
		makeApplication("a3", "a@x.com", base.Add(2*time.Minute)),
	}
	for _, f := range fixtures {
		if err := repo.Create(ctx, f); err != nil {
			t.Fatalf("Create %s: %v", f.ID, err)
		}
	}

	mine, err := repo.Find(ctx, ApplicationQuery{OwnerEmail: "a@x.com"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != "a3" || mine[1].ID != "a1" {
		t.Fatalf("unexpected scoped result: %v", appIDs(mine))
	}
	for _, a := range mine {
		if a.OwnerEmail != "a@x.com" {
			t.Fatalf("leaked application %s owned by %s", a.ID, a.OwnerEmail)
		}
	}
	if mine[0].Details["income_source"] != "salary" {
		t.Errorf("details not round-tripped: %+v", mine[0].Details)
	}

	all, err := repo.Find(ctx, ApplicationQuery{Status: domain.StatusPending})
	if err != nil {
		t.Fatalf("Find pending: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a3" {
		t.Fatalf("unexpected pending result: %v", appIDs(all))
	}
}

func TestApplication_DecidePendingOnlyOnce(t *testing.T) {
	repo := NewApplicationRepository(openTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, makeApplication("a1", "a@x.com", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	decidedAt := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	got, err := repo.DecidePending(ctx, "a1", Decision{Status: domain.StatusApproved, DecidedAt: decidedAt, DecidedBy: "m@x.com"})
	if err != nil {
		t.Fatalf("DecidePending: %v", err)
	}
	if got.Status != domain.StatusApproved || got.DecidedAt == nil || !got.DecidedAt.Equal(decidedAt) {
		t.Fatalf("unexpected decided app: %+v", got)
	}

	_, err = repo.DecidePending(ctx, "a1", Decision{Status: domain.StatusRejected, DecidedAt: decidedAt.Add(time.Hour)})
	if !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}

	after, _ := repo.GetByID(ctx, "a1")
	if after.Status != domain.StatusApproved || !after.DecidedAt.Equal(decidedAt) {
		t.Fatalf("decided application was mutated: %+v", after)
	}
}

func TestApplication_ConcurrentDecisions(t *testing.T) {
	repo := NewApplicationRepository(openTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, makeApplication("a1", "a@x.com", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	targets := []domain.ApplicationStatus{domain.StatusApproved, domain.StatusRejected}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target domain.ApplicationStatus) {
			defer wg.Done()
			_, errs[i] = repo.DecidePending(ctx, "a1", Decision{Status: target, DecidedAt: time.Now()})
		}(i, target)
	}
	wg.Wait()

	var ok, failed int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConditionFailed):
			failed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || failed != 1 {
		t.Fatalf("ok=%d failed=%d, want exactly one winner", ok, failed)
	}
}

func TestApplication_DeletePendingOwned(t *testing.T) {
	repo := NewApplicationRepository(openTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, makeApplication("a1", "a@x.com", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.DeletePendingOwned(ctx, "a1", "b@x.com"); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed for foreign owner, got %v", err)
	}
	if err := repo.DeletePendingOwned(ctx, "a1", "a@x.com"); err != nil {
		t.Fatalf("DeletePendingOwned: %v", err)
	}
	if _, err := repo.GetByID(ctx, "a1"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected deleted row, got %v", err)
	}
}

func TestApplication_PendingStats(t *testing.T) {
	repo := NewApplicationRepository(openTestDB(t))
	ctx := context.Background()

	count, oldest, err := repo.PendingStats(ctx)
	if err != nil || count != 0 || oldest != nil {
		t.Fatalf("empty stats = %d, %v, %v", count, oldest, err)
	}

	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	_ = repo.Create(ctx, makeApplication("a1", "a@x.com", base.Add(time.Hour)))
	_ = repo.Create(ctx, makeApplication("a2", "b@x.com", base))

	count, oldest, err = repo.PendingStats(ctx)
	if err != nil {
		t.Fatalf("PendingStats: %v", err)
	}
	if count != 2 || oldest == nil || !oldest.Equal(base) {
		t.Fatalf("stats = %d, %v", count, oldest)
	}
}

func ids(products []*domain.LoanProduct) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func appIDs(apps []*domain.LoanApplication) []string {
	out := make([]string, len(apps))
	for i, a := range apps {
		out[i] = a.ID
	}
	return out
}
