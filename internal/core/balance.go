package core

import (
	"slices"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CalculateBalances folds every expense and payment into a signed net
// position per current member. An expense credits its payer with the full
// amount and debits each share's member; a payment credits the payer and
// debits the payee. Accumulators for ids that no longer match a live member
// are carried through the fold but dropped from the result, so the returned
// balances can stop summing to zero once members have been deleted. That is
// defined behavior, not corrected here.
//
// Results are sorted by member name using collation for lang, ties keeping
// member input order. The input is never mutated.
func CalculateBalances(p Pache, lang language.Tag) []CalculatedBalance {
	acc := make(map[string]decimal.Decimal, len(p.Members))
	for _, m := range p.Members {
		acc[m.ID] = decimal.Zero
	}

	for _, e := range p.Expenses {
		acc[e.PaidByID] = acc[e.PaidByID].Add(e.Amount)
		for _, s := range e.Shares {
			acc[s.MemberID] = acc[s.MemberID].Sub(s.Amount)
		}
	}
	for _, pay := range p.Payments {
		acc[pay.FromMemberID] = acc[pay.FromMemberID].Add(pay.Amount)
		acc[pay.ToMemberID] = acc[pay.ToMemberID].Sub(pay.Amount)
	}

	out := make([]CalculatedBalance, 0, len(p.Members))
	for _, m := range p.Members {
		out = append(out, CalculatedBalance{
			MemberID:   m.ID,
			MemberName: m.Name,
			Balance:    acc[m.ID].Round(2),
		})
	}

	coll := collate.New(lang)
	slices.SortStableFunc(out, func(a, b CalculatedBalance) int {
		return coll.CompareString(a.MemberName, b.MemberName)
	})
	return out
}
