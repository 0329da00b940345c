package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"loanlink/internal/adapters/persistence/repositories"
	"loanlink/internal/core/domain"
	"loanlink/internal/testutil/repomock"
)

func TestSubmit_ForcesServerFields(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	f.lifecycle.now = fixedClock(start)
	p := f.product(t, "Car loan")

	app, err := f.lifecycle.Submit(context.Background(), identity("b@x.com"), SubmitInput{
		ProductID: p.ID,
		Amount:    2500,
		Purpose:   " new car ",
		Details:   map[string]string{"status": "approved"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	stored, err := f.apps.GetByID(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", stored.Status)
	}
	if stored.OwnerEmail != "b@x.com" || stored.ProductTitle != "Car loan" || stored.Purpose != "new car" {
		t.Fatalf("unexpected stored application: %+v", stored)
	}
	if !stored.AppliedAt.Equal(start.Add(time.Second)) {
		t.Fatalf("appliedAt = %v, want server time", stored.AppliedAt)
	}
	if stored.DecidedAt != nil {
		t.Fatalf("decidedAt set on submit: %v", stored.DecidedAt)
	}

	got := f.events.Events()
	if len(got) != 1 || got[0].Type != domain.EventSubmitted || got[0].ApplicationID != app.ID {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Home loan")

	tests := []struct {
		name    string
		input   SubmitInput
		wantErr error
	}{
		{"zero amount", SubmitInput{ProductID: p.ID, Amount: 0}, domain.ErrValidation},
		{"negative amount", SubmitInput{ProductID: p.ID, Amount: -10}, domain.ErrValidation},
		{"missing product id", SubmitInput{Amount: 10}, domain.ErrValidation},
		{"unknown product", SubmitInput{ProductID: "nope", Amount: 10}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.lifecycle.Submit(context.Background(), identity("b@x.com"), tt.input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Home loan")
	app := f.submit(t, "b@x.com", p.ID)
	manager := identity("m@x.com")

	decided, err := f.lifecycle.Decide(ctx, manager, app.ID, domain.StatusApproved, "looks good")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != domain.StatusApproved || decided.DecidedBy != "m@x.com" || decided.DecisionNote != "looks good" || decided.DecidedAt == nil {
		t.Fatalf("unexpected decision: %+v", decided)
	}
	firstDecidedAt := *decided.DecidedAt

	for _, target := range []domain.ApplicationStatus{domain.StatusRejected, domain.StatusApproved} {
		if _, err := f.lifecycle.Decide(ctx, manager, app.ID, target, ""); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("re-decide %s = %v, want invalid transition", target, err)
		}
	}

	stored, _ := f.apps.GetByID(ctx, app.ID)
	if stored.Status != domain.StatusApproved || !stored.DecidedAt.Equal(firstDecidedAt) {
		t.Fatalf("terminal application changed: %+v", stored)
	}

	if _, err := f.lifecycle.Decide(ctx, manager, "missing", domain.StatusApproved, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("decide missing = %v, want not found", err)
	}
	if _, err := f.lifecycle.Decide(ctx, manager, app.ID, domain.StatusPending, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("decide pending = %v, want validation", err)
	}

	types := []domain.EventType{}
	for _, e := range f.events.Events() {
		types = append(types, e.Type)
	}
	if len(types) != 2 || types[1] != domain.EventDecided {
		t.Fatalf("events = %v", types)
	}
}

func TestDecide_ConcurrentOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Home loan")
	app := f.submit(t, "b@x.com", p.ID)

	targets := []domain.ApplicationStatus{domain.StatusApproved, domain.StatusRejected}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target domain.ApplicationStatus) {
			defer wg.Done()
			_, errs[i] = f.lifecycle.Decide(context.Background(), identity("m@x.com"), app.ID, target, "")
		}(i, target)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrInvalidTransition):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins=%d conflicts=%d", wins, conflicts)
	}
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Home loan")
	mine := f.submit(t, "b@x.com", p.ID)
	decided := f.submit(t, "b@x.com", p.ID)
	if _, err := f.lifecycle.Decide(ctx, identity("m@x.com"), decided.ID, domain.StatusRejected, ""); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if err := f.lifecycle.Withdraw(ctx, identity("c@x.com"), mine.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("withdraw by other = %v, want forbidden", err)
	}
	if err := f.lifecycle.Withdraw(ctx, identity("m@x.com"), mine.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("withdraw by manager = %v, want forbidden", err)
	}
	if err := f.lifecycle.Withdraw(ctx, identity("b@x.com"), decided.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("withdraw decided = %v, want invalid transition", err)
	}
	if err := f.lifecycle.Withdraw(ctx, identity("b@x.com"), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("withdraw missing = %v, want not found", err)
	}

	if err := f.lifecycle.Withdraw(ctx, identity("b@x.com"), mine.ID); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if _, err := f.apps.GetByID(ctx, mine.ID); !errors.Is(err, repositories.ErrRecordNotFound) {
		t.Fatalf("withdrawn application still stored: %v", err)
	}
	if err := f.lifecycle.Withdraw(ctx, identity("b@x.com"), mine.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second withdraw = %v, want not found", err)
	}
}

func TestListMine_OnlyOwnApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.lifecycle.now = fixedClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	p := f.product(t, "Home loan")

	owners := []string{"a@x.com", "b@x.com", "a@x.com", "c@x.com", "a@x.com"}
	for _, owner := range owners {
		f.submit(t, owner, p.ID)
	}

	mine, err := f.lifecycle.ListMine(ctx, identity("a@x.com"), "")
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("got %d applications, want 3", len(mine))
	}
	for i, app := range mine {
		if app.OwnerEmail != "a@x.com" {
			t.Fatalf("foreign application %s from %s", app.ID, app.OwnerEmail)
		}
		if i > 0 && app.AppliedAt.After(mine[i-1].AppliedAt) {
			t.Fatal("applications not ordered newest first")
		}
	}

	approved, err := f.lifecycle.ListMine(ctx, identity("a@x.com"), domain.StatusApproved)
	if err != nil || len(approved) != 0 {
		t.Fatalf("approved = %d, %v", len(approved), err)
	}
}

func TestListPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Home loan")
	a1 := f.submit(t, "a@x.com", p.ID)
	f.submit(t, "b@x.com", p.ID)
	if _, err := f.lifecycle.Decide(ctx, identity("m@x.com"), a1.ID, domain.StatusApproved, ""); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	queue, err := f.lifecycle.ListPending(ctx, identity("m@x.com"), domain.RoleManager)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(queue) != 1 || queue[0].OwnerEmail != "b@x.com" || queue[0].Status != domain.StatusPending {
		t.Fatalf("unexpected queue: %+v", queue)
	}
}

func TestListPending_NewestFirst(t *testing.T) {
	f := newFixture(t)
	f.lifecycle.now = fixedClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	p := f.product(t, "Home loan")
	first := f.submit(t, "a@x.com", p.ID)
	second := f.submit(t, "b@x.com", p.ID)
	third := f.submit(t, "c@x.com", p.ID)

	queue, err := f.lifecycle.ListPending(context.Background(), identity("m@x.com"), domain.RoleManager)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	want := []string{third.ID, second.ID, first.ID}
	if len(queue) != len(want) {
		t.Fatalf("queue length = %d, want %d", len(queue), len(want))
	}
	for i, id := range want {
		if queue[i].ID != id {
			t.Fatalf("queue[%d] = %s (%s), want %s", i, queue[i].ID, queue[i].OwnerEmail, id)
		}
	}
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Home loan")
	app := f.submit(t, "b@x.com", p.ID)

	if _, err := f.lifecycle.Get(ctx, identity("b@x.com"), domain.RoleBorrower, app.ID); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if _, err := f.lifecycle.Get(ctx, identity("m@x.com"), domain.RoleManager, app.ID); err != nil {
		t.Fatalf("manager Get: %v", err)
	}
	if _, err := f.lifecycle.Get(ctx, identity("c@x.com"), domain.RoleBorrower, app.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("other Get = %v, want forbidden", err)
	}
	if _, err := f.lifecycle.Get(ctx, identity("b@x.com"), domain.RoleBorrower, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing Get = %v, want not found", err)
	}
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	f.events.Err = errors.New("broker down")
	p := f.product(t, "Home loan")

	if _, err := f.lifecycle.Submit(context.Background(), identity("b@x.com"), SubmitInput{ProductID: p.ID, Amount: 1}); err != nil {
		t.Fatalf("Submit with failing publisher: %v", err)
	}
}

func TestDecide_StoreErrorIsNotAKind(t *testing.T) {
	boom := errors.New("connection reset")
	apps := &repomock.Applications{
		DecidePendingFn: func(context.Context, string, repositories.Decision) (*domain.LoanApplication, error) {
			return nil, boom
		},
	}
	lifecycle := NewLoanLifecycle(apps, &repomock.Products{}, NewOwnershipFilter(decisionRoles), nil)

	_, err := lifecycle.Decide(context.Background(), identity("m@x.com"), "a1", domain.StatusApproved, "")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	for _, kind := range []error{domain.ErrNotFound, domain.ErrInvalidTransition, domain.ErrForbidden} {
		if errors.Is(err, kind) {
			t.Fatalf("store failure classified as %v", kind)
		}
	}
}
