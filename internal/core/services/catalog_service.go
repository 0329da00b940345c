package services

import (
	"context"
	"math"
	"strings"
	"time"

	"loanlink/internal/adapters/persistence/repositories"
	"loanlink/internal/core/domain"

	"github.com/google/uuid"
)

const (
	// DefaultLatestLimit is the number of products on the home page
	DefaultLatestLimit = 6
	// MaxLatestLimit caps ?limit= on the latest listing
	MaxLatestLimit = 50
)

// LoanCatalog serves the read-mostly catalog of loan products
type LoanCatalog struct {
	products repositories.ProductRepository
	now      func() time.Time
}

// NewLoanCatalog creates a new catalog service
func NewLoanCatalog(products repositories.ProductRepository) *LoanCatalog {
	return &LoanCatalog{
		products: products,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List lists every product, newest first
func (s *LoanCatalog) List(ctx context.Context) ([]*domain.LoanProduct, error) {
	return s.products.List(ctx)
}

// Latest lists the n newest products. n is clamped to 1..MaxLatestLimit;
// zero means DefaultLatestLimit.
func (s *LoanCatalog) Latest(ctx context.Context, n int) ([]*domain.LoanProduct, error) {
	switch {
	case n == 0:
		n = DefaultLatestLimit
	case n < 1:
		n = 1
	case n > MaxLatestLimit:
		n = MaxLatestLimit
	}
	return s.products.Latest(ctx, n)
}

// Get gets a product by ID
func (s *LoanCatalog) Get(ctx context.Context, id string) (*domain.LoanProduct, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrProductNotFound)
	}
	return product, nil
}

// Count counts products
func (s *LoanCatalog) Count(ctx context.Context) (int64, error) {
	return s.products.Count(ctx)
}

// Create adds a product to the catalog
func (s *LoanCatalog) Create(ctx context.Context, input CreateProductInput) (*domain.LoanProduct, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validation("title is required")
	}
	if err := checkAmounts(&input.InterestRate, &input.MaxAmount); err != nil {
		return nil, err
	}

	now := s.now()
	product := &domain.LoanProduct{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Category:     strings.TrimSpace(input.Category),
		InterestRate: input.InterestRate,
		MaxAmount:    input.MaxAmount,
		ImageURL:     strings.TrimSpace(input.ImageURL),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update changes descriptive fields only. The approved marker has its own operation.
func (s *LoanCatalog) Update(ctx context.Context, id string, patch repositories.ProductPatch) (*domain.LoanProduct, error) {
	if patch.IsEmpty() {
		return nil, validation("no updatable fields supplied")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, validation("title cannot be empty")
	}
	if err := checkAmounts(patch.InterestRate, patch.MaxAmount); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, id, patch); err != nil {
		return nil, notFoundAs(err, domain.ErrProductNotFound)
	}
	return s.Get(ctx, id)
}

// MarkApproved sets the operator approval marker. Repeating it keeps the
// first approval time.
func (s *LoanCatalog) MarkApproved(ctx context.Context, id string) (*domain.LoanProduct, error) {
	if err := s.products.MarkApproved(ctx, id, s.now()); err != nil {
		return nil, notFoundAs(err, domain.ErrProductNotFound)
	}
	return s.Get(ctx, id)
}

func checkAmounts(rate, maxAmount *float64) error {
	if rate != nil && (math.IsNaN(*rate) || *rate < 0) {
		return validation("interest_rate cannot be negative")
	}
	if maxAmount != nil && (math.IsNaN(*maxAmount) || *maxAmount < 0) {
		return validation("max_amount cannot be negative")
	}
	return nil
}
