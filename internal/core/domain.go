package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownMemberName is the display name for ids that no longer resolve to a
// live member. Deleting a member keeps every reference to it in recorded
// expenses and payments, so lookups must always produce a name.
const UnknownMemberName = "Unknown member"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrDuplicateMember = errors.New("duplicate member")
	ErrNotFound        = errors.New("not found")
)

type (
	// Member is a named participant within a pache.
	Member struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// ExpenseShare is one participant's portion of an expense. Shares exist
	// only nested inside their expense.
	ExpenseShare struct {
		MemberID string          `json:"memberId"`
		Amount   decimal.Decimal `json:"amount"`
	}

	// Expense is an outlay paid by one member and split among participants.
	// The rounded share amounts always sum back to Amount exactly.
	Expense struct {
		ID          string          `json:"id"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		PaidByID    string          `json:"paidById"`
		Date        time.Time       `json:"date"`
		Shares      []ExpenseShare  `json:"shares"`
	}

	// Payment is a direct settlement transfer between two members,
	// independent of any expense.
	Payment struct {
		ID           string          `json:"id"`
		FromMemberID string          `json:"fromMemberId"`
		ToMemberID   string          `json:"toMemberId"`
		Amount       decimal.Decimal `json:"amount"`
		Date         time.Time       `json:"date"`
	}

	// CalculatedBalance is a member's derived net position. Positive means
	// the member is owed money. Never persisted.
	CalculatedBalance struct {
		MemberID   string          `json:"memberId"`
		MemberName string          `json:"memberName"`
		Balance    decimal.Decimal `json:"balance"`
	}

	// Pache is a named group owning its members, expenses and payments.
	Pache struct {
		ID       string    `json:"id"`
		Name     string    `json:"name"`
		Members  []Member  `json:"members"`
		Expenses []Expense `json:"expenses"`
		Payments []Payment `json:"payments"`
	}
)

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return errors.New("empty description")
	}
	if !e.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if e.PaidByID == "" {
		return errors.New("missing payer")
	}
	if len(e.Shares) == 0 {
		return errors.New("expense has no shares")
	}
	sum := decimal.Zero
	for _, s := range e.Shares {
		if s.Amount.IsNegative() {
			return errors.New("negative share amount")
		}
		sum = sum.Add(s.Amount)
	}
	if !sum.Round(2).Equal(e.Amount.Round(2)) {
		return errors.New("shares do not sum to expense amount")
	}
	return nil
}

func (p Payment) Validate() error {
	if !p.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if p.FromMemberID == "" || p.ToMemberID == "" {
		return errors.New("missing member reference")
	}
	if p.FromMemberID == p.ToMemberID {
		return errors.New("payer and payee are the same member")
	}
	return nil
}

// FindMember returns the live member with the given id, if any.
func (p Pache) FindMember(id string) (Member, bool) {
	for _, m := range p.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// ResolveMemberName returns the member's current name, or the unknown-member
// placeholder for dangling references. It never fails.
func ResolveMemberName(members []Member, id string) string {
	for _, m := range members {
		if m.ID == id {
			return m.Name
		}
	}
	return UnknownMemberName
}
