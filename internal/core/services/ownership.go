package services

import (
	"loanlink/internal/adapters/persistence/repositories"
	"loanlink/internal/core/domain"
)

// View selects which slice of loan applications a listing returns
type View int

const (
	// ViewOwn is the caller's own applications
	ViewOwn View = iota
	// ViewPendingQueue is every pending application, for decision roles
	ViewPendingQueue
)

// OwnershipFilter derives the effective query for a caller. Borrowers are
// scoped to their own email; decision roles see the whole pending queue.
type OwnershipFilter struct {
	decisionRoles []domain.Role
}

// NewOwnershipFilter creates a filter with the roles allowed to see others' applications
func NewOwnershipFilter(decisionRoles []domain.Role) OwnershipFilter {
	return OwnershipFilter{decisionRoles: decisionRoles}
}

// Scope builds the query actually executed. Client-supplied owner values are
// always replaced.
func (f OwnershipFilter) Scope(id domain.VerifiedIdentity, role domain.Role, view View, requested repositories.ApplicationQuery) repositories.ApplicationQuery {
	if view == ViewPendingQueue {
		if domain.HasRole(f.decisionRoles, role) {
			return repositories.ApplicationQuery{Status: domain.StatusPending}
		}
		// not a decision role: only the caller's own pending items
		return repositories.ApplicationQuery{OwnerEmail: id.Email, Status: domain.StatusPending}
	}
	return repositories.ApplicationQuery{OwnerEmail: id.Email, Status: requested.Status}
}

// CanView reports whether the caller may read app
func (f OwnershipFilter) CanView(id domain.VerifiedIdentity, role domain.Role, app *domain.LoanApplication) bool {
	return app.OwnerEmail == id.Email || domain.HasRole(f.decisionRoles, role)
}

// CanWithdraw reports whether the caller may withdraw app. Only the owner can.
func (f OwnershipFilter) CanWithdraw(id domain.VerifiedIdentity, app *domain.LoanApplication) bool {
	return app.OwnerEmail == id.Email
}

// DecisionRoles returns the roles with visibility beyond their own records
func (f OwnershipFilter) DecisionRoles() []domain.Role {
	return f.decisionRoles
}
