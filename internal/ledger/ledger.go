// Package ledger implements the mutation operations over a pache snapshot.
// Every operation takes the current snapshot by value and returns a new one;
// callers own loading and persisting the snapshot around the call.
package ledger

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pache/internal/core"
)

// NewPache creates an empty pache with a fresh id.
func NewPache(name string) (core.Pache, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Pache{}, fmt.Errorf("%w: empty pache name", core.ErrInvalidInput)
	}
	return core.Pache{
		ID:       uuid.NewString(),
		Name:     name,
		Members:  []core.Member{},
		Expenses: []core.Expense{},
		Payments: []core.Payment{},
	}, nil
}

// AddMember appends a new member with a fresh id. Names are compared
// case-insensitively when rejecting duplicates.
func AddMember(p core.Pache, name string) (core.Pache, core.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return p, core.Member{}, fmt.Errorf("%w: empty member name", core.ErrInvalidInput)
	}
	for _, m := range p.Members {
		if strings.EqualFold(m.Name, name) {
			return p, core.Member{}, fmt.Errorf("%w: %q", core.ErrDuplicateMember, name)
		}
	}

	member := core.Member{ID: uuid.NewString(), Name: name}
	p.Members = append(slices.Clone(p.Members), member)
	return p, member, nil
}

// DeleteMember removes the member with the given id. Expenses and payments
// referencing the id are kept untouched; name lookups for them fall back to
// the unknown-member placeholder.
func DeleteMember(p core.Pache, memberID string) (core.Pache, error) {
	kept := slices.DeleteFunc(slices.Clone(p.Members), func(m core.Member) bool {
		return m.ID == memberID
	})
	if len(kept) == len(p.Members) {
		return p, fmt.Errorf("%w: member %s", core.ErrNotFound, memberID)
	}
	p.Members = kept
	return p, nil
}

// AddExpense records an expense paid by paidByID and split equally across
// participantIDs. The payer and every participant must be current members.
func AddExpense(p core.Pache, description string, amount decimal.Decimal, paidByID string, participantIDs []string) (core.Pache, core.Expense, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return p, core.Expense{}, fmt.Errorf("%w: empty description", core.ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return p, core.Expense{}, fmt.Errorf("%w: amount must be positive", core.ErrInvalidInput)
	}
	if _, ok := p.FindMember(paidByID); !ok {
		return p, core.Expense{}, fmt.Errorf("%w: payer %s is not a member", core.ErrInvalidInput, paidByID)
	}
	for _, id := range participantIDs {
		if _, ok := p.FindMember(id); !ok {
			return p, core.Expense{}, fmt.Errorf("%w: participant %s is not a member", core.ErrInvalidInput, id)
		}
	}

	amount = amount.Round(2)
	shares, err := core.SplitEqually(amount, participantIDs)
	if err != nil {
		return p, core.Expense{}, err
	}

	expense := core.Expense{
		ID:          uuid.NewString(),
		Description: description,
		Amount:      amount,
		PaidByID:    paidByID,
		Date:        time.Now().UTC(),
		Shares:      shares,
	}
	p.Expenses = append(slices.Clone(p.Expenses), expense)
	return p, expense, nil
}

// DeleteExpense removes the expense with the given id.
func DeleteExpense(p core.Pache, expenseID string) (core.Pache, error) {
	kept := slices.DeleteFunc(slices.Clone(p.Expenses), func(e core.Expense) bool {
		return e.ID == expenseID
	})
	if len(kept) == len(p.Expenses) {
		return p, fmt.Errorf("%w: expense %s", core.ErrNotFound, expenseID)
	}
	p.Expenses = kept
	return p, nil
}

// RecordPayment records a direct settlement transfer between two current
// members.
func RecordPayment(p core.Pache, fromID, toID string, amount decimal.Decimal) (core.Pache, core.Payment, error) {
	if !amount.IsPositive() {
		return p, core.Payment{}, fmt.Errorf("%w: amount must be positive", core.ErrInvalidInput)
	}
	if fromID == toID {
		return p, core.Payment{}, fmt.Errorf("%w: payer and payee are the same member", core.ErrInvalidInput)
	}
	if _, ok := p.FindMember(fromID); !ok {
		return p, core.Payment{}, fmt.Errorf("%w: payer %s is not a member", core.ErrInvalidInput, fromID)
	}
	if _, ok := p.FindMember(toID); !ok {
		return p, core.Payment{}, fmt.Errorf("%w: payee %s is not a member", core.ErrInvalidInput, toID)
	}

	payment := core.Payment{
		ID:           uuid.NewString(),
		FromMemberID: fromID,
		ToMemberID:   toID,
		Amount:       amount.Round(2),
		Date:         time.Now().UTC(),
	}
	p.Payments = append(slices.Clone(p.Payments), payment)
	return p, payment, nil
}

// DeletePayment removes the payment with the given id.
func DeletePayment(p core.Pache, paymentID string) (core.Pache, error) {
	kept := slices.DeleteFunc(slices.Clone(p.Payments), func(pay core.Payment) bool {
		return pay.ID == paymentID
	})
	if len(kept) == len(p.Payments) {
		return p, fmt.Errorf("%w: payment %s", core.ErrNotFound, paymentID)
	}
	p.Payments = kept
	return p, nil
}
