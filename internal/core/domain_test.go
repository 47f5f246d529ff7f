package core

import (
	"testing"
	"time"
)

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		ID:          "e1",
		Description: "groceries",
		Amount:      amt("20.00"),
		PaidByID:    "m1",
		Date:        time.Now().UTC(),
		Shares: []ExpenseShare{
			{MemberID: "m1", Amount: amt("10.00")},
			{MemberID: "m2", Amount: amt("10.00")},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Expense)
	}{
		{"empty description", func(e *Expense) { e.Description = "  " }},
		{"zero amount", func(e *Expense) { e.Amount = amt("0") }},
		{"negative amount", func(e *Expense) { e.Amount = amt("-5.00") }},
		{"missing payer", func(e *Expense) { e.PaidByID = "" }},
		{"no shares", func(e *Expense) { e.Shares = nil }},
		{"negative share", func(e *Expense) {
			e.Shares = []ExpenseShare{
				{MemberID: "m1", Amount: amt("30.00")},
				{MemberID: "m2", Amount: amt("-10.00")},
			}
		}},
		{"shares do not sum", func(e *Expense) {
			e.Shares = []ExpenseShare{
				{MemberID: "m1", Amount: amt("5.00")},
				{MemberID: "m2", Amount: amt("5.00")},
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := e.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestPaymentValidate(t *testing.T) {
	valid := Payment{
		ID:           "pay1",
		FromMemberID: "m1",
		ToMemberID:   "m2",
		Amount:       amt("15.00"),
		Date:         time.Now().UTC(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid payment rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Payment)
	}{
		{"zero amount", func(p *Payment) { p.Amount = amt("0") }},
		{"missing payer", func(p *Payment) { p.FromMemberID = "" }},
		{"missing payee", func(p *Payment) { p.ToMemberID = "" }},
		{"self payment", func(p *Payment) { p.ToMemberID = p.FromMemberID }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestResolveMemberName(t *testing.T) {
	members := []Member{
		{ID: "m1", Name: "Ali"},
		{ID: "m2", Name: "Bita"},
	}

	if got := ResolveMemberName(members, "m2"); got != "Bita" {
		t.Errorf("got %q, want Bita", got)
	}
	if got := ResolveMemberName(members, "missing"); got != UnknownMemberName {
		t.Errorf("got %q, want %q", got, UnknownMemberName)
	}
	if got := ResolveMemberName(nil, "m1"); got != UnknownMemberName {
		t.Errorf("got %q, want %q for empty member list", got, UnknownMemberName)
	}
}

func TestFindMember(t *testing.T) {
	p := Pache{Members: []Member{{ID: "m1", Name: "Ali"}}}

	m, ok := p.FindMember("m1")
	if !ok || m.Name != "Ali" {
		t.Errorf("FindMember(m1) = %+v, %v", m, ok)
	}
	if _, ok := p.FindMember("nope"); ok {
		t.Error("found nonexistent member")
	}
}
