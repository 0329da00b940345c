// Package repomock provides function-backed mocks for the repository ports.
// Unset functions return zero values, or an error where a value is expected.
package repomock

import (
	"context"
	"errors"
	"time"

	"loanlink/internal/adapters/persistence/repositories"
	"loanlink/internal/core/domain"
)

// ErrNotImplemented is returned by read methods whose function is unset
var ErrNotImplemented = errors.New("repomock: not implemented")

// Accounts satisfies repositories.AccountRepository
type Accounts struct {
	CreateFn     func(ctx context.Context, a *domain.Account) error
	GetByIDFn    func(ctx context.Context, id string) (*domain.Account, error)
	GetByEmailFn func(ctx context.Context, email string) (*domain.Account, error)
	UpdateRoleFn func(ctx context.Context, id string, role domain.Role) error
	ListFn       func(ctx context.Context, offset, limit int) ([]*domain.Account, int64, error)
}

func (m *Accounts) Create(ctx context.Context, a *domain.Account) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Accounts) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, ErrNotImplemented
}

func (m *Accounts) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return nil, ErrNotImplemented
}

func (m *Accounts) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	if m.UpdateRoleFn != nil {
		return m.UpdateRoleFn(ctx, id, role)
	}
	return nil
}

func (m *Accounts) List(ctx context.Context, offset, limit int) ([]*domain.Account, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, offset, limit)
	}
	return nil, 0, nil
}

// Products satisfies repositories.ProductRepository
type Products struct {
	CreateFn       func(ctx context.Context, p *domain.LoanProduct) error
	GetByIDFn      func(ctx context.Context, id string) (*domain.LoanProduct, error)
	ListFn         func(ctx context.Context) ([]*domain.LoanProduct, error)
	LatestFn       func(ctx context.Context, limit int) ([]*domain.LoanProduct, error)
	UpdateFn       func(ctx context.Context, id string, patch repositories.ProductPatch) error
	MarkApprovedFn func(ctx context.Context, id string, at time.Time) error
	CountFn        func(ctx context.Context) (int64, error)
}

func (m *Products) Create(ctx context.Context, p *domain.LoanProduct) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *Products) GetByID(ctx context.Context, id string) (*domain.LoanProduct, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, ErrNotImplemented
}

func (m *Products) List(ctx context.Context) ([]*domain.LoanProduct, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

func (m *Products) Latest(ctx context.Context, limit int) ([]*domain.LoanProduct, error) {
	if m.LatestFn != nil {
		return m.LatestFn(ctx, limit)
	}
	return nil, nil
}

func (m *Products) Update(ctx context.Context, id string, patch repositories.ProductPatch) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, patch)
	}
	return nil
}

func (m *Products) MarkApproved(ctx context.Context, id string, at time.Time) error {
	if m.MarkApprovedFn != nil {
		return m.MarkApprovedFn(ctx, id, at)
	}
	return nil
}

func (m *Products) Count(ctx context.Context) (int64, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	return 0, nil
}

// Applications satisfies repositories.ApplicationRepository
type Applications struct {
	CreateFn             func(ctx context.Context, a *domain.LoanApplication) error
	GetByIDFn            func(ctx context.Context, id string) (*domain.LoanApplication, error)
	FindFn               func(ctx context.Context, q repositories.ApplicationQuery) ([]*domain.LoanApplication, error)
	DecidePendingFn      func(ctx context.Context, id string, d repositories.Decision) (*domain.LoanApplication, error)
	DeletePendingOwnedFn func(ctx context.Context, id, ownerEmail string) error
	PendingStatsFn       func(ctx context.Context) (int64, *time.Time, error)
}

func (m *Applications) Create(ctx context.Context, a *domain.LoanApplication) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Applications) GetByID(ctx context.Context, id string) (*domain.LoanApplication, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, ErrNotImplemented
}

func (m *Applications) Find(ctx context.Context, q repositories.ApplicationQuery) ([]*domain.LoanApplication, error) {
	if m.FindFn != nil {
		return m.FindFn(ctx, q)
	}
	return nil, nil
}

func (m *Applications) DecidePending(ctx context.Context, id string, d repositories.Decision) (*domain.LoanApplication, error) {
	if m.DecidePendingFn != nil {
		return m.DecidePendingFn(ctx, id, d)
	}
	return nil, ErrNotImplemented
}

func (m *Applications) DeletePendingOwned(ctx context.Context, id, ownerEmail string) error {
	if m.DeletePendingOwnedFn != nil {
		return m.DeletePendingOwnedFn(ctx, id, ownerEmail)
	}
	return nil
}

func (m *Applications) PendingStats(ctx context.Context) (int64, *time.Time, error) {
	if m.PendingStatsFn != nil {
		return m.PendingStatsFn(ctx)
	}
	return 0, nil, nil
}

var (
	_ repositories.AccountRepository     = (*Accounts)(nil)
	_ repositories.ProductRepository     = (*Products)(nil)
	_ repositories.ApplicationRepository = (*Applications)(nil)
)
