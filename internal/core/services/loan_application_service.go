package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"loanlink/internal/adapters/persistence/repositories"
	"loanlink/internal/core/domain"
	"loanlink/internal/pkg/obs"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LoanLifecycle owns the loan application state machine:
// pending -> approved | rejected, plus withdrawal by the owner while pending.
type LoanLifecycle struct {
	apps     repositories.ApplicationRepository
	products repositories.ProductRepository
	filter   OwnershipFilter
	events   EventPublisher
	now      func() time.Time
}

// NewLoanLifecycle creates a new loan application service
func NewLoanLifecycle(
	apps repositories.ApplicationRepository,
	products repositories.ProductRepository,
	filter OwnershipFilter,
	events EventPublisher,
) *LoanLifecycle {
	return &LoanLifecycle{
		apps:     apps,
		products: products,
		filter:   filter,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit creates a pending application owned by the caller
func (s *LoanLifecycle) Submit(ctx context.Context, id domain.VerifiedIdentity, input SubmitInput) (*domain.LoanApplication, error) {
	ctx, span := obs.Tracer().Start(ctx, "LoanLifecycle.Submit")
	defer span.End()

	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		return nil, validation("product_id is required")
	}
	if math.IsNaN(input.Amount) || math.IsInf(input.Amount, 0) || input.Amount <= 0 {
		return nil, validation("amount must be greater than 0")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrProductNotFound)
	}

	app := &domain.LoanApplication{
		ID:           uuid.NewString(),
		OwnerEmail:   id.Email,
		ProductID:    product.ID,
		ProductTitle: product.Title,
		Amount:       input.Amount,
		Purpose:      strings.TrimSpace(input.Purpose),
		Details:      input.Details,
		Status:       domain.StatusPending,
		AppliedAt:    s.now(),
	}
	if err := s.apps.Create(ctx, app); err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("loan_application.id", app.ID))
	s.publish(ctx, domain.EventSubmitted, app, id.Email)
	return app, nil
}

// Decide moves a pending application to approved or rejected. The write is a
// single conditional update, so of two concurrent decisions only one lands.
func (s *LoanLifecycle) Decide(ctx context.Context, id domain.VerifiedIdentity, appID string, target domain.ApplicationStatus, note string) (*domain.LoanApplication, error) {
	ctx, span := obs.Tracer().Start(ctx, "LoanLifecycle.Decide", trace.WithAttributes(
		attribute.String("loan_application.id", appID),
		attribute.String("loan_application.target", string(target)),
	))
	defer span.End()

	if !target.IsDecision() {
		return nil, validation("status must be approved or rejected")
	}

	app, err := s.apps.DecidePending(ctx, appID, repositories.Decision{
		Status:    target,
		DecidedAt: s.now(),
		DecidedBy: id.Email,
		Note:      strings.TrimSpace(note),
	})
	if errors.Is(err, repositories.ErrConditionFailed) {
		// nothing matched: tell a missing record apart from a decided one
		current, getErr := s.apps.GetByID(ctx, appID)
		if getErr != nil {
			return nil, notFoundAs(getErr, domain.ErrApplicationNotFound)
		}
		return nil, fmt.Errorf("%w: already %s", domain.ErrNotPending, current.Status)
	}
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	s.publish(ctx, domain.EventDecided, app, id.Email)
	return app, nil
}

// Withdraw deletes the caller's own application while it is still pending
func (s *LoanLifecycle) Withdraw(ctx context.Context, id domain.VerifiedIdentity, appID string) error {
	ctx, span := obs.Tracer().Start(ctx, "LoanLifecycle.Withdraw", trace.WithAttributes(
		attribute.String("loan_application.id", appID),
	))
	defer span.End()

	err := s.apps.DeletePendingOwned(ctx, appID, id.Email)
	if errors.Is(err, repositories.ErrConditionFailed) {
		current, getErr := s.apps.GetByID(ctx, appID)
		if getErr != nil {
			return notFoundAs(getErr, domain.ErrApplicationNotFound)
		}
		if !s.filter.CanWithdraw(id, current) {
			return domain.ErrNotOwner
		}
		return fmt.Errorf("%w: already %s", domain.ErrNotPending, current.Status)
	}
	if err != nil {
		recordError(span, err)
		return err
	}

	s.publish(ctx, domain.EventWithdrawn, &domain.LoanApplication{
		ID:         appID,
		OwnerEmail: id.Email,
		Status:     domain.StatusPending,
	}, id.Email)
	return nil
}

// ListPending lists the pending queue, newest first. Callers gate it with
// the decision roles.
func (s *LoanLifecycle) ListPending(ctx context.Context, id domain.VerifiedIdentity, role domain.Role) ([]*domain.LoanApplication, error) {
	q := s.filter.Scope(id, role, ViewPendingQueue, repositories.ApplicationQuery{})
	return s.apps.Find(ctx, q)
}

// ListMine lists the caller's applications, newest first, optionally by status
func (s *LoanLifecycle) ListMine(ctx context.Context, id domain.VerifiedIdentity, status domain.ApplicationStatus) ([]*domain.LoanApplication, error) {
	q := s.filter.Scope(id, "", ViewOwn, repositories.ApplicationQuery{Status: status})
	return s.apps.Find(ctx, q)
}

// Get returns one application if the caller owns it or holds a decision role
func (s *LoanLifecycle) Get(ctx context.Context, id domain.VerifiedIdentity, role domain.Role, appID string) (*domain.LoanApplication, error) {
	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrApplicationNotFound)
	}
	if !s.filter.CanView(id, role, app) {
		return nil, domain.ErrNotOwner
	}
	return app, nil
}

// publish emits an event after a stored transition. A failed publish is
// logged and never undoes the transition.
func (s *LoanLifecycle) publish(ctx context.Context, typ domain.EventType, app *domain.LoanApplication, actor string) {
	if s.events == nil {
		return
	}
	event := domain.LifecycleEvent{
		Type:          typ,
		ApplicationID: app.ID,
		ProductID:     app.ProductID,
		OwnerEmail:    app.OwnerEmail,
		Status:        app.Status,
		Actor:         actor,
		OccurredAt:    s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("⚠️ Failed to publish %s for %s: %v", event.RoutingKey(), app.ID, err)
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
