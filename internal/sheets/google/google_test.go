package google

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"pache/internal/core"
)

func balanceRows(t *testing.T, rows [][]interface{}) []string {
	t.Helper()
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) != 3 {
			t.Fatalf("row width = %d: %v", len(row), row)
		}
		out = append(out, fmt.Sprintf("%v|%v|%v", row[0], row[1], row[2]))
	}
	return out
}

func TestMergeBalanceRowsKeepsOtherPaches(t *testing.T) {
	existing := [][]interface{}{
		{"Pache", "Member", "Balance"},
		{"trip", "Ali", 66.66},
		{"trip", "Bita", -33.33},
		{"dinner", "Sara", 0.0},
	}
	balances := []core.CalculatedBalance{
		{MemberID: "m1", MemberName: "Ali", Balance: decimal.RequireFromString("10.00")},
		{MemberID: "m2", MemberName: "Bita", Balance: decimal.RequireFromString("-10.00")},
	}

	got := balanceRows(t, mergeBalanceRows(existing, "trip", balances))
	want := []string{
		"Pache|Member|Balance",
		"dinner|Sara|0",
		"trip|Ali|10",
		"trip|Bita|-10",
	}
	if len(got) != len(want) {
		t.Fatalf("rows = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMergeBalanceRowsEmptySheet(t *testing.T) {
	balances := []core.CalculatedBalance{
		{MemberID: "m1", MemberName: "Ali", Balance: decimal.RequireFromString("5.00")},
	}

	rows := mergeBalanceRows(nil, "trip", balances)
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "Pache" || rows[1][0] != "trip" {
		t.Errorf("rows = %v", rows)
	}
}

func TestMergeBalanceRowsRemovesPacheWithNoBalances(t *testing.T) {
	existing := [][]interface{}{
		{"Pache", "Member", "Balance"},
		{"trip", "Ali", 1.0},
		{"dinner", "Sara", 2.0},
	}

	rows := mergeBalanceRows(existing, "trip", nil)
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[1][0] != "dinner" {
		t.Errorf("kept row = %v", rows[1])
	}
}

func TestMergeBalanceRowsSkipsBlankRows(t *testing.T) {
	existing := [][]interface{}{
		{"Pache", "Member", "Balance"},
		{},
		{"  "},
		{"dinner", "Sara", 2.0},
	}

	rows := mergeBalanceRows(existing, "trip", nil)
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
}
