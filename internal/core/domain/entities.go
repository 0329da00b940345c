package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role represents account role in the system
type Role string

const (
	RoleBorrower Role = "borrower"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// ParseRole validates a raw role value. Empty input is rejected; callers that
// want the default must apply it before parsing.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleBorrower, RoleManager, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: invalid role %q", ErrValidation, raw)
	}
}

// ParseRoles parses a comma separated role list (used by config)
func ParseRoles(raw string) ([]Role, error) {
	var roles []Role
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := ParseRole(part)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// HasRole reports whether role is in set
func HasRole(set []Role, role Role) bool {
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}

// ApplicationStatus is the lifecycle state of a loan application
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// ParseStatus validates a raw status value
func ParseStatus(raw string) (ApplicationStatus, error) {
	switch s := ApplicationStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusApproved, StatusRejected:
		return s, nil
	default:
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, raw)
	}
}

// IsTerminal reports whether no further transition is allowed
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// IsDecision reports whether s is a valid decide() target
func (s ApplicationStatus) IsDecision() bool {
	return s.IsTerminal()
}

// VerifiedIdentity is the caller identity produced by credential verification.
// It is the only trusted notion of "who is calling".
type VerifiedIdentity struct {
	Email   string
	Subject string
}

// Account represents a registered user
type Account struct {
	ID        string
	Email     string
	Name      string
	PhotoURL  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LoanProduct is a catalog entry. Approved is an operator marker unrelated to
// loan application status.
type LoanProduct struct {
	ID           string
	Title        string
	Description  string
	Category     string
	InterestRate float64
	MaxAmount    float64
	ImageURL     string
	Approved     bool
	ApprovedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LoanApplication is a borrower's request for a loan product
type LoanApplication struct {
	ID           string
	OwnerEmail   string
	ProductID    string
	ProductTitle string
	Amount       float64
	Purpose      string
	Details      map[string]string
	Status       ApplicationStatus
	AppliedAt    time.Time
	DecidedAt    *time.Time
	DecidedBy    string
	DecisionNote string
}

// NormalizeEmail lowercases and trims an email so ownership comparisons are stable
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
