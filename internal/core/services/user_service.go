package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"loanlink/internal/adapters/persistence/repositories"
	"loanlink/internal/core/domain"
	"loanlink/internal/pkg/obs"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// UserRegistry maps emails to accounts and is the source of truth for roles
type UserRegistry struct {
	accounts          repositories.AccountRepository
	selfRegisterRoles []domain.Role
}

// NewUserRegistry creates a new user registry. selfRegisterRoles lists the
// roles a caller may request for themselves at registration.
func NewUserRegistry(accounts repositories.AccountRepository, selfRegisterRoles []domain.Role) *UserRegistry {
	if len(selfRegisterRoles) == 0 {
		selfRegisterRoles = []domain.Role{domain.RoleBorrower}
	}
	return &UserRegistry{
		accounts:          accounts,
		selfRegisterRoles: selfRegisterRoles,
	}
}

// Register creates an account for a new email. An existing email returns the
// stored account unchanged; created reports which case happened.
func (s *UserRegistry) Register(ctx context.Context, input RegisterInput) (account *domain.Account, created bool, err error) {
	ctx, span := obs.Tracer().Start(ctx, "UserRegistry.Register")
	defer span.End()

	email := domain.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, false, validation("a valid email is required")
	}

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, false, err
	}

	role := domain.RoleBorrower
	if strings.TrimSpace(input.Role) != "" {
		if role, err = domain.ParseRole(input.Role); err != nil {
			return nil, false, err
		}
	}
	if !domain.HasRole(s.selfRegisterRoles, role) {
		return nil, false, fmt.Errorf("%w: %s", domain.ErrRoleNotAssignable, role)
	}

	account = &domain.Account{
		ID:       uuid.NewString(),
		Email:    email,
		Name:     strings.TrimSpace(input.Name),
		PhotoURL: strings.TrimSpace(input.PhotoURL),
		Role:     role,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// lost a concurrent registration race; the unique index holds the winner
			existing, err := s.accounts.GetByEmail(ctx, email)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	span.SetAttributes(attribute.String("account.role", string(role)))
	return account, true, nil
}

// AccountByEmail looks up an account by email
func (s *UserRegistry) AccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, notFoundAs(err, domain.ErrAccountNotFound)
	}
	return account, nil
}

// RoleOf returns the role stored for email
func (s *UserRegistry) RoleOf(ctx context.Context, email string) (domain.Role, error) {
	account, err := s.AccountByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return account.Role, nil
}

// Elevate overwrites the role of an account. It performs no authorization;
// callers gate it with a RoleGate guard.
func (s *UserRegistry) Elevate(ctx context.Context, accountID string, role domain.Role) (*domain.Account, error) {
	ctx, span := obs.Tracer().Start(ctx, "UserRegistry.Elevate")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID), attribute.String("account.role", string(role)))

	if _, err := domain.ParseRole(string(role)); err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateRole(ctx, accountID, role); err != nil {
		return nil, notFoundAs(err, domain.ErrAccountNotFound)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrAccountNotFound)
	}
	return account, nil
}

// List lists accounts with pagination
func (s *UserRegistry) List(ctx context.Context, offset, limit int) ([]*domain.Account, int64, error) {
	return s.accounts.List(ctx, offset, limit)
}
