package repositories

import (
	"context"
	"errors"
	"time"

	"loanlink/internal/core/domain"
)

// Store-agnostic errors. Every backend translates its driver errors into these.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
	// ErrConditionFailed means a conditional write matched no record
	ErrConditionFailed = errors.New("condition failed")
)

// AccountRepository defines account repository interface
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	List(ctx context.Context, offset, limit int) ([]*domain.Account, int64, error)
}

// ProductRepository defines loan product repository interface
type ProductRepository interface {
	Create(ctx context.Context, product *domain.LoanProduct) error
	GetByID(ctx context.Context, id string) (*domain.LoanProduct, error)
	List(ctx context.Context) ([]*domain.LoanProduct, error)
	Latest(ctx context.Context, limit int) ([]*domain.LoanProduct, error)
	Update(ctx context.Context, id string, patch ProductPatch) error
	MarkApproved(ctx context.Context, id string, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

// ProductPatch carries the descriptive fields an operator may change
type ProductPatch struct {
	Title        *string
	Description  *string
	Category     *string
	InterestRate *float64
	MaxAmount    *float64
	ImageURL     *string
}

// IsEmpty reports whether the patch changes nothing
func (p ProductPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.InterestRate == nil && p.MaxAmount == nil && p.ImageURL == nil
}

// ApplicationQuery is the effective filter for listing loan applications
type ApplicationQuery struct {
	OwnerEmail string
	Status     domain.ApplicationStatus
}

// Decision is the write applied by a decide transition
type Decision struct {
	Status    domain.ApplicationStatus
	DecidedAt time.Time
	DecidedBy string
	Note      string
}

// ApplicationRepository defines loan application repository interface
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.LoanApplication) error
	GetByID(ctx context.Context, id string) (*domain.LoanApplication, error)
	// Find returns matching applications ordered by applied_at descending
	Find(ctx context.Context, q ApplicationQuery) ([]*domain.LoanApplication, error)
	// DecidePending applies d only if the application is still pending.
	// Returns ErrConditionFailed when nothing matched.
	DecidePending(ctx context.Context, id string, d Decision) (*domain.LoanApplication, error)
	// DeletePendingOwned deletes only if owner matches and status is pending.
	// Returns ErrConditionFailed when nothing matched.
	DeletePendingOwned(ctx context.Context, id, ownerEmail string) error
	// PendingStats returns the count of pending applications and the oldest applied_at
	PendingStats(ctx context.Context) (int64, *time.Time, error)
}
