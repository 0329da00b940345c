package services

import (
	"context"
	"errors"
	"fmt"

	"loanlink/internal/core/domain"
)

// accountLookup is the part of the registry a guard needs
type accountLookup interface {
	AccountByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// RoleGate builds guards that check the caller's stored role
type RoleGate struct {
	accounts accountLookup
}

// NewRoleGate creates a role gate backed by the user registry
func NewRoleGate(registry *UserRegistry) *RoleGate {
	return &RoleGate{accounts: registry}
}

// Require returns a guard that admits only the given roles
func (g *RoleGate) Require(roles ...domain.Role) Guard {
	return Guard{accounts: g.accounts, roles: roles}
}

// Guard admits a verified identity whose account role is in its set.
// There is no role hierarchy.
type Guard struct {
	accounts accountLookup
	roles    []domain.Role
}

// Check returns the caller's account, or ErrForbidden. An identity with no
// account is forbidden, never not-found.
func (g Guard) Check(ctx context.Context, id domain.VerifiedIdentity) (*domain.Account, error) {
	account, err := g.accounts.AccountByEmail(ctx, id.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: no account for caller", domain.ErrForbidden)
		}
		return nil, err
	}
	if !domain.HasRole(g.roles, account.Role) {
		return nil, fmt.Errorf("%w: role %s not permitted", domain.ErrForbidden, account.Role)
	}
	return account, nil
}

// Roles returns the admitted roles
func (g Guard) Roles() []domain.Role {
	return g.roles
}
