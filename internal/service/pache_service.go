// Package service coordinates ledger operations with persistence and change
// events.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"pache/internal/core"
	"pache/internal/ledger"
	"pache/internal/storage"
)

// EventPublisher notifies interested parties that a pache changed. A nil
// publisher disables events.
type EventPublisher interface {
	PublishPacheChanged(ctx context.Context, pacheID, op string) error
}

type PacheService struct {
	store  storage.Store
	events EventPublisher
	lang   language.Tag
}

func NewPacheService(store storage.Store, events EventPublisher, lang language.Tag) *PacheService {
	return &PacheService{store: store, events: events, lang: lang}
}

// publish emits a change event. Event delivery is best effort; a broker
// outage must not fail the mutation that already persisted.
func (s *PacheService) publish(ctx context.Context, pacheID, op string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishPacheChanged(ctx, pacheID, op); err != nil {
		slog.WarnContext(ctx, "Failed to publish change event",
			"pache_id", pacheID,
			"op", op,
			"error", err)
	}
}

func (s *PacheService) CreatePache(ctx context.Context, name string) (core.Pache, error) {
	p, err := ledger.NewPache(name)
	if err != nil {
		return core.Pache{}, err
	}
	if err := s.store.CreatePache(ctx, p); err != nil {
		return core.Pache{}, fmt.Errorf("create pache: %w", err)
	}
	s.publish(ctx, p.ID, "pache.created")
	return p, nil
}

func (s *PacheService) ListPaches(ctx context.Context) ([]core.Pache, error) {
	paches, err := s.store.ListPaches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list paches: %w", err)
	}
	for i := range paches {
		paches[i] = displayOrder(paches[i])
	}
	return paches, nil
}

func (s *PacheService) GetPache(ctx context.Context, id string) (core.Pache, error) {
	p, err := s.store.GetPache(ctx, id)
	if err != nil {
		return core.Pache{}, err
	}
	return displayOrder(p), nil
}

// displayOrder presents expenses and payments newest first. Stored order is
// insertion order, so a reversed copy is enough and keeps same-timestamp
// entries stable.
func displayOrder(p core.Pache) core.Pache {
	expenses := slices.Clone(p.Expenses)
	slices.Reverse(expenses)
	payments := slices.Clone(p.Payments)
	slices.Reverse(payments)
	p.Expenses = expenses
	p.Payments = payments
	return p
}

// UpdatePache replaces the stored snapshot wholesale. Collections omitted by
// the caller (left nil) keep their stored value; the last writer of each
// supplied collection wins.
func (s *PacheService) UpdatePache(ctx context.Context, incoming core.Pache) (core.Pache, error) {
	current, err := s.store.GetPache(ctx, incoming.ID)
	if err != nil {
		return core.Pache{}, err
	}

	if incoming.Name != "" {
		current.Name = incoming.Name
	}
	if incoming.Members != nil {
		current.Members = incoming.Members
	}
	if incoming.Expenses != nil {
		for _, e := range incoming.Expenses {
			if err := e.Validate(); err != nil {
				return core.Pache{}, fmt.Errorf("%w: expense %s: %v", core.ErrInvalidInput, e.ID, err)
			}
		}
		current.Expenses = incoming.Expenses
	}
	if incoming.Payments != nil {
		for _, pay := range incoming.Payments {
			if err := pay.Validate(); err != nil {
				return core.Pache{}, fmt.Errorf("%w: payment %s: %v", core.ErrInvalidInput, pay.ID, err)
			}
		}
		current.Payments = incoming.Payments
	}

	if err := s.store.SavePache(ctx, current); err != nil {
		return core.Pache{}, fmt.Errorf("save pache: %w", err)
	}
	s.publish(ctx, current.ID, "pache.updated")
	return displayOrder(current), nil
}

func (s *PacheService) DeletePache(ctx context.Context, id string) error {
	if err := s.store.DeletePache(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, id, "pache.deleted")
	return nil
}

// mutate runs op against the current snapshot and persists the result.
func (s *PacheService) mutate(ctx context.Context, pacheID, event string, op func(core.Pache) (core.Pache, error)) (core.Pache, error) {
	current, err := s.store.GetPache(ctx, pacheID)
	if err != nil {
		return core.Pache{}, err
	}
	next, err := op(current)
	if err != nil {
		return core.Pache{}, err
	}
	if err := s.store.SavePache(ctx, next); err != nil {
		return core.Pache{}, fmt.Errorf("save pache: %w", err)
	}
	s.publish(ctx, pacheID, event)
	return next, nil
}

func (s *PacheService) AddMember(ctx context.Context, pacheID, name string) (core.Member, error) {
	var member core.Member
	_, err := s.mutate(ctx, pacheID, "member.added", func(p core.Pache) (core.Pache, error) {
		next, m, err := ledger.AddMember(p, name)
		member = m
		return next, err
	})
	return member, err
}

func (s *PacheService) DeleteMember(ctx context.Context, pacheID, memberID string) error {
	_, err := s.mutate(ctx, pacheID, "member.deleted", func(p core.Pache) (core.Pache, error) {
		return ledger.DeleteMember(p, memberID)
	})
	return err
}

func (s *PacheService) AddExpense(ctx context.Context, pacheID, description string, amount decimal.Decimal, paidByID string, participantIDs []string) (core.Expense, error) {
	var expense core.Expense
	_, err := s.mutate(ctx, pacheID, "expense.added", func(p core.Pache) (core.Pache, error) {
		next, e, err := ledger.AddExpense(p, description, amount, paidByID, participantIDs)
		expense = e
		return next, err
	})
	return expense, err
}

func (s *PacheService) DeleteExpense(ctx context.Context, pacheID, expenseID string) error {
	_, err := s.mutate(ctx, pacheID, "expense.deleted", func(p core.Pache) (core.Pache, error) {
		return ledger.DeleteExpense(p, expenseID)
	})
	return err
}

func (s *PacheService) RecordPayment(ctx context.Context, pacheID, fromID, toID string, amount decimal.Decimal) (core.Payment, error) {
	var payment core.Payment
	_, err := s.mutate(ctx, pacheID, "payment.recorded", func(p core.Pache) (core.Pache, error) {
		next, pay, err := ledger.RecordPayment(p, fromID, toID, amount)
		payment = pay
		return next, err
	})
	return payment, err
}

func (s *PacheService) DeletePayment(ctx context.Context, pacheID, paymentID string) error {
	_, err := s.mutate(ctx, pacheID, "payment.deleted", func(p core.Pache) (core.Pache, error) {
		return ledger.DeletePayment(p, paymentID)
	})
	return err
}

// Balances computes the current net position of every member.
func (s *PacheService) Balances(ctx context.Context, pacheID string) ([]core.CalculatedBalance, error) {
	p, err := s.store.GetPache(ctx, pacheID)
	if err != nil {
		return nil, err
	}
	return core.CalculateBalances(p, s.lang), nil
}
