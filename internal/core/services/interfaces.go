package services

import (
	"context"

	"loanlink/internal/core/domain"
)

// IdentityVerifier turns a bearer credential into a verified identity.
// Every failure wraps domain.ErrUnauthenticated.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (domain.VerifiedIdentity, error)
}

// EventPublisher emits lifecycle events to downstream systems
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LifecycleEvent) error
}

// Input DTOs

// RegisterInput for self-registration
type RegisterInput struct {
	Email    string
	Name     string
	PhotoURL string
	Role     string // optional, defaults to borrower
}

// SubmitInput for submitting a loan application.
// Status, owner and timestamps are never taken from the client.
type SubmitInput struct {
	ProductID string
	Amount    float64
	Purpose   string
	Details   map[string]string
}

// CreateProductInput for creating a catalog entry
type CreateProductInput struct {
	Title        string
	Description  string
	Category     string
	InterestRate float64
	MaxAmount    float64
	ImageURL     string
}
