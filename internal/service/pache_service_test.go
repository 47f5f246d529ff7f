package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"pache/internal/core"
	"pache/internal/storage/memory"
)

type recordingPublisher struct {
	events []string
	err    error
}

func (r *recordingPublisher) PublishPacheChanged(_ context.Context, pacheID, op string) error {
	r.events = append(r.events, op)
	return r.err
}

func newTestService(t *testing.T) (*PacheService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return NewPacheService(memory.New(), pub, language.Make("fa")), pub
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateAndGetPache(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePache(ctx, "trip")
	if err != nil {
		t.Fatal(err)
	}
	if p.ID == "" || p.Name != "trip" {
		t.Errorf("created pache = %+v", p)
	}

	got, err := svc.GetPache(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != p.ID {
		t.Errorf("got %+v", got)
	}

	if len(pub.events) != 1 || pub.events[0] != "pache.created" {
		t.Errorf("events = %v", pub.events)
	}

	if _, err := svc.GetPache(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing pache: %v", err)
	}
}

func TestMutationFlow(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePache(ctx, "trip")
	if err != nil {
		t.Fatal(err)
	}

	ali, err := svc.AddMember(ctx, p.ID, "Ali")
	if err != nil {
		t.Fatal(err)
	}
	bita, err := svc.AddMember(ctx, p.ID, "Bita")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddMember(ctx, p.ID, "ALI"); !errors.Is(err, core.ErrDuplicateMember) {
		t.Errorf("duplicate member: %v", err)
	}

	e, err := svc.AddExpense(ctx, p.ID, "dinner", amt("30.00"), ali.ID, []string{ali.ID, bita.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Shares) != 2 {
		t.Fatalf("shares = %+v", e.Shares)
	}

	pay, err := svc.RecordPayment(ctx, p.ID, bita.ID, ali.ID, amt("15.00"))
	if err != nil {
		t.Fatal(err)
	}

	balances, err := svc.Balances(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range balances {
		if !b.Balance.IsZero() {
			t.Errorf("balance %s = %s, want 0 after full settlement", b.MemberName, b.Balance)
		}
	}

	if err := svc.DeletePayment(ctx, p.ID, pay.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteExpense(ctx, p.ID, e.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteMember(ctx, p.ID, bita.ID); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"pache.created",
		"member.added", "member.added",
		"expense.added",
		"payment.recorded",
		"payment.deleted",
		"expense.deleted",
		"member.deleted",
	}
	if len(pub.events) != len(want) {
		t.Fatalf("events = %v", pub.events)
	}
	for i := range want {
		if pub.events[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, pub.events[i], want[i])
		}
	}
}

func TestFailedMutationDoesNotPersistOrPublish(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePache(ctx, "trip")
	if err != nil {
		t.Fatal(err)
	}
	before := len(pub.events)

	_, err = svc.AddExpense(ctx, p.ID, "dinner", amt("30.00"), "nobody", []string{"nobody"})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}

	got, err := svc.GetPache(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Expenses) != 0 {
		t.Error("failed mutation persisted")
	}
	if len(pub.events) != before {
		t.Errorf("failed mutation published events: %v", pub.events[before:])
	}
}

func TestPublisherErrorsAreNonFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewPacheService(memory.New(), pub, language.Make("fa"))
	ctx := context.Background()

	p, err := svc.CreatePache(ctx, "trip")
	if err != nil {
		t.Fatalf("broker error surfaced from mutation: %v", err)
	}
	if _, err := svc.GetPache(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
}

func TestNilPublisher(t *testing.T) {
	svc := NewPacheService(memory.New(), nil, language.Make("fa"))

	if _, err := svc.CreatePache(context.Background(), "trip"); err != nil {
		t.Fatal(err)
	}
}

func TestDisplayOrderNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePache(ctx, "trip")
	if err != nil {
		t.Fatal(err)
	}
	ali, err := svc.AddMember(ctx, p.ID, "Ali")
	if err != nil {
		t.Fatal(err)
	}

	first, err := svc.AddExpense(ctx, p.ID, "first", amt("10.00"), ali.ID, []string{ali.ID})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.AddExpense(ctx, p.ID, "second", amt("20.00"), ali.ID, []string{ali.ID})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetPache(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Expenses[0].ID != second.ID || got.Expenses[1].ID != first.ID {
		t.Errorf("expenses not newest first: %s, %s", got.Expenses[0].Description, got.Expenses[1].Description)
	}
}

func TestUpdatePachePartialReplacement(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePache(ctx, "trip")
	if err != nil {
		t.Fatal(err)
	}
	ali, err := svc.AddMember(ctx, p.ID, "Ali")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddExpense(ctx, p.ID, "dinner", amt("10.00"), ali.ID, []string{ali.ID}); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdatePache(ctx, core.Pache{
		ID:      p.ID,
		Name:    "renamed",
		Members: []core.Member{{ID: "m-new", Name: "Sara"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "renamed" {
		t.Errorf("name = %q", updated.Name)
	}
	if len(updated.Members) != 1 || updated.Members[0].Name != "Sara" {
		t.Errorf("members = %+v", updated.Members)
	}
	if len(updated.Expenses) != 1 {
		t.Error("omitted expenses collection was replaced")
	}
}

func TestUpdatePacheRejectsInvalidCollections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePache(ctx, "trip")
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.UpdatePache(ctx, core.Pache{
		ID: p.ID,
		Expenses: []core.Expense{{
			ID:          "e1",
			Description: "",
			Amount:      amt("10.00"),
			PaidByID:    "m1",
			Shares:      []core.ExpenseShare{{MemberID: "m1", Amount: amt("10.00")}},
		}},
	})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput", err)
	}
}
