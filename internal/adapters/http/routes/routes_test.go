package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loanlink/internal/adapters/events"
	"loanlink/internal/adapters/http/middleware"
	"loanlink/internal/adapters/persistence/models"
	"loanlink/internal/config"
	"loanlink/internal/core/domain"
	"loanlink/internal/core/services"
	"loanlink/internal/pkg/jwt"
	"loanlink/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type testServer struct {
	app      *fiber.App
	registry *services.UserRegistry
	catalog  *services.LoanCatalog
	events   *events.Recorder
}

func newTestServer(t *testing.T) *testServer {
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

	cfg := &config.Config{
		AppMode: "dev",
		Roles: config.RoleConfig{
			SelfRegister: []domain.Role{domain.RoleBorrower},
			Elevation:    []domain.Role{domain.RoleAdmin},
			Decision:     []domain.Role{domain.RoleManager, domain.RoleAdmin},
			Catalog:      []domain.Role{domain.RoleAdmin},
		},
	}
	store := config.NewGormStore(db)
	recorder := &events.Recorder{}

	registry := services.NewUserRegistry(store.Accounts, cfg.Roles.SelfRegister)
	catalog := services.NewLoanCatalog(store.Products)
	lifecycle := services.NewLoanLifecycle(store.Applications, store.Products,
		services.NewOwnershipFilter(cfg.Roles.Decision), recorder)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	Setup(app, Deps{
		Config:    cfg,
		Store:     store,
		Verifier:  services.NewJWTVerifier(jwt.NewHMACValidator(testSecret, "", "")),
		Registry:  registry,
		Catalog:   catalog,
		Lifecycle: lifecycle,
	})

	return &testServer{app: app, registry: registry, catalog: catalog, events: recorder}
}

func (s *testServer) account(t *testing.T, email string, role domain.Role) *domain.Account {
	t.Helper()
	a, _, err := s.registry.Register(context.Background(), services.RegisterInput{Email: email})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if role != domain.RoleBorrower {
		if a, err = s.registry.Elevate(context.Background(), a.ID, role); err != nil {
			t.Fatalf("Elevate: %v", err)
		}
	}
	return a
}

func (s *testServer) product(t *testing.T) *domain.LoanProduct {
	t.Helper()
	p, err := s.catalog.Create(context.Background(), services.CreateProductInput{Title: "Home loan", MaxAmount: 100000})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	return p
}

func token(t *testing.T, email string) string {
	t.Helper()
	tok, err := jwt.GenerateHS256(jwt.TokenInput{Email: email, TTL: time.Hour}, testSecret)
	if err != nil {
		t.Fatalf("GenerateHS256: %v", err)
	}
	return tok
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func (s *testServer) do(t *testing.T, method, path, email string, body interface{}) (int, envelope, http.Header) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, email))
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, env, resp.Header
}

func TestRegisterEndpoint(t *testing.T) {
	s := newTestServer(t)

	status, env, _ := s.do(t, http.MethodPost, "/users", "", fiber.Map{"email": "b@x.com", "name": "B"})
	if status != http.StatusCreated || !env.Success {
		t.Fatalf("first register = %d %+v", status, env)
	}
	status, _, _ = s.do(t, http.MethodPost, "/api/v1/users", "", fiber.Map{"email": "B@x.com"})
	if status != http.StatusOK {
		t.Fatalf("repeat register = %d, want 200", status)
	}

	status, env, _ = s.do(t, http.MethodPost, "/users", "", fiber.Map{"email": "evil@x.com", "role": "admin"})
	if status != http.StatusForbidden || env.Code != response.CodeForbidden {
		t.Fatalf("self-assigned admin = %d %+v", status, env)
	}

	status, env, _ = s.do(t, http.MethodGet, "/users/role/b@x.com", "", nil)
	var role struct{ Role string }
	_ = json.Unmarshal(env.Data, &role)
	if status != http.StatusOK || role.Role != "borrower" {
		t.Fatalf("role lookup = %d %s", status, env.Data)
	}
	if status, env, _ = s.do(t, http.MethodGet, "/users/role/ghost@x.com", "", nil); status != http.StatusNotFound || env.Code != response.CodeNotFound {
		t.Fatalf("unknown role lookup = %d %+v", status, env)
	}
}

func TestRoleLookupEscapedEmail(t *testing.T) {
	s := newTestServer(t)
	s.account(t, "b@x.com", domain.RoleBorrower)

	for _, path := range []string{"/users/role/b%40x.com", "/api/v1/users/role/B%40X.com"} {
		status, env, _ := s.do(t, http.MethodGet, path, "", nil)
		var body struct{ Email, Role string }
		_ = json.Unmarshal(env.Data, &body)
		if status != http.StatusOK || body.Role != "borrower" || body.Email != "b@x.com" {
			t.Fatalf("%s = %d %s", path, status, env.Data)
		}
	}
	if status, _, _ := s.do(t, http.MethodGet, "/users/role/ghost%40x.com", "", nil); status != http.StatusNotFound {
		t.Fatalf("escaped unknown email = %d, want 404", status)
	}
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t)
	s.account(t, "b@x.com", domain.RoleBorrower)

	status, env, _ := s.do(t, http.MethodGet, "/loan-applications/mine", "", nil)
	if status != http.StatusUnauthorized || env.Code != response.CodeUnauthenticated {
		t.Fatalf("no token = %d %+v", status, env)
	}

	req := httptest.NewRequest(http.MethodGet, "/loan-applications/mine", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token = %d", resp.StatusCode)
	}

	if status, env, _ = s.do(t, http.MethodGet, "/loan-applications/pending", "b@x.com", nil); status != http.StatusForbidden || env.Code != response.CodeForbidden {
		t.Fatalf("borrower pending = %d %+v", status, env)
	}
	if status, _, _ = s.do(t, http.MethodGet, "/loan-applications/pending", "nobody@x.com", nil); status != http.StatusForbidden {
		t.Fatalf("no account pending = %d, want 403", status)
	}
	if status, _, _ = s.do(t, http.MethodGet, "/users", "b@x.com", nil); status != http.StatusForbidden {
		t.Fatalf("borrower list users = %d, want 403", status)
	}
}

func TestMakeManagerFlow(t *testing.T) {
	s := newTestServer(t)
	s.account(t, "admin@x.com", domain.RoleAdmin)
	target := s.account(t, "b@x.com", domain.RoleBorrower)
	s.account(t, "m@x.com", domain.RoleManager)

	if status, _, _ := s.do(t, http.MethodPatch, "/users/make-manager/"+target.ID, "m@x.com", nil); status != http.StatusForbidden {
		t.Fatalf("manager elevating = %d, want 403", status)
	}

	for i := 0; i < 2; i++ {
		if status, env, _ := s.do(t, http.MethodPatch, "/users/make-manager/"+target.ID, "admin@x.com", nil); status != http.StatusOK {
			t.Fatalf("make-manager #%d = %d %+v", i+1, status, env)
		}
	}
	if role, err := s.registry.RoleOf(context.Background(), "b@x.com"); err != nil || role != domain.RoleManager {
		t.Fatalf("RoleOf = %s, %v", role, err)
	}

	if status, _, _ := s.do(t, http.MethodPatch, "/users/make-manager/missing", "admin@x.com", nil); status != http.StatusNotFound {
		t.Fatalf("make-manager missing = %d, want 404", status)
	}
	if status, _, _ := s.do(t, http.MethodPatch, "/users/"+target.ID+"/role", "admin@x.com", fiber.Map{"role": "owner"}); status != http.StatusBadRequest {
		t.Fatalf("invalid role = %d, want 400", status)
	}
	if status, _, _ := s.do(t, http.MethodPatch, "/users/"+target.ID+"/role", "admin@x.com", fiber.Map{"role": "borrower"}); status != http.StatusOK {
		t.Fatalf("set role = %d, want 200", status)
	}

	status, env, _ := s.do(t, http.MethodGet, "/users?limit=1", "admin@x.com", nil)
	var page struct {
		Meta struct{ Total int64 }
	}
	_ = json.Unmarshal(env.Data, &page)
	if status != http.StatusOK || page.Meta.Total != 3 {
		t.Fatalf("list users = %d %s", status, env.Data)
	}
}

func TestApplicationLifecycleEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.account(t, "b@x.com", domain.RoleBorrower)
	s.account(t, "m@x.com", domain.RoleManager)
	p := s.product(t)

	status, env, header := s.do(t, http.MethodPost, "/api/v1/loan-applications", "b@x.com", fiber.Map{
		"loan_id":    p.ID,
		"amount":     5000,
		"status":     "approved",
		"applied_at": "1999-01-01T00:00:00Z",
	})
	if status != http.StatusCreated {
		t.Fatalf("submit = %d %+v", status, env)
	}
	if header.Get(fiber.HeaderCacheControl) == "" {
		t.Error("application responses must not be cacheable")
	}
	var app struct {
		ID        string
		Status    string
		AppliedAt time.Time `json:"applied_at"`
	}
	_ = json.Unmarshal(env.Data, &app)
	if app.Status != "pending" || app.AppliedAt.Year() == 1999 {
		t.Fatalf("client fields honored: %s", env.Data)
	}

	if status, _, _ = s.do(t, http.MethodGet, "/loan-applications/"+app.ID, "other@x.com", nil); status != http.StatusForbidden {
		t.Fatalf("stranger get = %d, want 403", status)
	}
	if status, _, _ = s.do(t, http.MethodGet, "/loan-applications/"+app.ID, "m@x.com", nil); status != http.StatusOK {
		t.Fatalf("manager get = %d, want 200", status)
	}
	if status, _, _ = s.do(t, http.MethodGet, "/loan-applications/mine?status=bogus", "b@x.com", nil); status != http.StatusBadRequest {
		t.Fatalf("bad status filter = %d, want 400", status)
	}

	if status, env, _ = s.do(t, http.MethodPatch, "/loan-applications/"+app.ID+"/decide", "m@x.com", fiber.Map{"status": "pending"}); status != http.StatusBadRequest || env.Code != response.CodeValidation {
		t.Fatalf("decide pending = %d %+v", status, env)
	}
	if status, _, _ = s.do(t, http.MethodPatch, "/loan-applications/"+app.ID+"/decide", "m@x.com", fiber.Map{"status": "approved"}); status != http.StatusOK {
		t.Fatalf("decide = %d", status)
	}
	if status, env, _ = s.do(t, http.MethodPatch, "/loan-applications/"+app.ID+"/decide", "m@x.com", fiber.Map{"status": "rejected"}); status != http.StatusConflict || env.Code != response.CodeInvalidTransition {
		t.Fatalf("re-decide = %d %+v", status, env)
	}
	if status, _, _ = s.do(t, http.MethodDelete, "/loan-applications/"+app.ID, "b@x.com", nil); status != http.StatusConflict {
		t.Fatalf("withdraw decided = %d, want 409", status)
	}

	status, env, _ = s.do(t, http.MethodPost, "/loan-applications", "b@x.com", fiber.Map{"loan_id": p.ID, "amount": 10})
	if status != http.StatusCreated {
		t.Fatalf("second submit = %d", status)
	}
	_ = json.Unmarshal(env.Data, &app)

	status, env, _ = s.do(t, http.MethodGet, "/loan-applications/pending", "m@x.com", nil)
	var pending []struct{ ID string }
	_ = json.Unmarshal(env.Data, &pending)
	if status != http.StatusOK || len(pending) != 1 || pending[0].ID != app.ID {
		t.Fatalf("pending = %d %s", status, env.Data)
	}

	if status, _, _ = s.do(t, http.MethodDelete, "/loan-applications/"+app.ID, "m@x.com", nil); status != http.StatusForbidden {
		t.Fatalf("manager withdraw = %d, want 403", status)
	}
	if status, _, _ = s.do(t, http.MethodDelete, "/loan-applications/"+app.ID, "b@x.com", nil); status != http.StatusOK {
		t.Fatalf("withdraw = %d", status)
	}
	if status, _, _ = s.do(t, http.MethodGet, "/loan-applications/"+app.ID, "b@x.com", nil); status != http.StatusNotFound {
		t.Fatalf("get withdrawn = %d, want 404", status)
	}

	if status, _, _ = s.do(t, http.MethodPost, "/loan-applications", "b@x.com", fiber.Map{"loan_id": "missing", "amount": 10}); status != http.StatusNotFound {
		t.Fatalf("submit unknown product = %d, want 404", status)
	}
	if got := len(s.events.Events()); got != 4 {
		t.Fatalf("published %d events, want 4", got)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.account(t, "admin@x.com", domain.RoleAdmin)
	s.account(t, "m@x.com", domain.RoleManager)

	status, env, _ := s.do(t, http.MethodPost, "/loans", "admin@x.com", fiber.Map{"title": "Car loan", "interest_rate": 5.5})
	if status != http.StatusCreated {
		t.Fatalf("create = %d %+v", status, env)
	}
	var product struct{ ID string }
	_ = json.Unmarshal(env.Data, &product)

	if status, _, _ = s.do(t, http.MethodPost, "/loans", "m@x.com", fiber.Map{"title": "x"}); status != http.StatusForbidden {
		t.Fatalf("manager create = %d, want 403", status)
	}

	status, _, header := s.do(t, http.MethodGet, "/loans/"+product.ID, "", nil)
	if status != http.StatusOK || header.Get(fiber.HeaderCacheControl) != "public, max-age=60" {
		t.Fatalf("get = %d cache=%q", status, header.Get(fiber.HeaderCacheControl))
	}
	if status, _, _ = s.do(t, http.MethodGet, "/loans/latest?limit=abc", "", nil); status != http.StatusBadRequest {
		t.Fatalf("latest bad limit = %d, want 400", status)
	}
	if status, _, _ = s.do(t, http.MethodGet, "/loans/latest?limit=3", "", nil); status != http.StatusOK {
		t.Fatalf("latest = %d", status)
	}
	if status, _, _ = s.do(t, http.MethodPatch, "/loans/"+product.ID, "admin@x.com", fiber.Map{}); status != http.StatusBadRequest {
		t.Fatalf("empty patch = %d, want 400", status)
	}
	if status, _, _ = s.do(t, http.MethodPatch, "/loans/"+product.ID, "admin@x.com", fiber.Map{"description": "New"}); status != http.StatusOK {
		t.Fatalf("patch = %d", status)
	}

	status, env, _ = s.do(t, http.MethodPatch, "/loans/"+product.ID+"/approve", "admin@x.com", nil)
	var approved struct{ Approved bool }
	_ = json.Unmarshal(env.Data, &approved)
	if status != http.StatusOK || !approved.Approved {
		t.Fatalf("approve = %d %s", status, env.Data)
	}
	if status, _, _ = s.do(t, http.MethodGet, "/loans/missing", "", nil); status != http.StatusNotFound {
		t.Fatalf("get missing = %d, want 404", status)
	}
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	status, _, _ := s.do(t, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK {
		t.Fatalf("health = %d", status)
	}
	status, env, _ := s.do(t, http.MethodGet, "/nope", "", nil)
	if status != http.StatusNotFound || env.Code != response.CodeNotFound {
		t.Fatalf("unknown route = %d %+v", status, env)
	}
}
