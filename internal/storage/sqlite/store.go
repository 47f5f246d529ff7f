// Package sqlite persists paches in a SQLite database. Amounts are stored as
// decimal strings so no precision is lost on the round trip; position columns
// preserve insertion order, which the split algorithm and balance output
// depend on.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"pache/internal/core"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ListPaches(ctx context.Context) ([]core.Pache, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM paches ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("list paches: %w", err)
	}
	defer rows.Close()

	var out []core.Pache
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan pache: %w", err)
		}
		out = append(out, core.Pache{ID: id, Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list paches: %w", err)
	}

	for i := range out {
		p, err := s.loadChildren(ctx, out[i])
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (s *Store) GetPache(ctx context.Context, id string) (core.Pache, error) {
	var p core.Pache
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM paches WHERE id = ?", id).
		Scan(&p.ID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Pache{}, fmt.Errorf("%w: pache %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Pache{}, fmt.Errorf("get pache: %w", err)
	}
	return s.loadChildren(ctx, p)
}

func (s *Store) loadChildren(ctx context.Context, p core.Pache) (core.Pache, error) {
	members, err := s.loadMembers(ctx, p.ID)
	if err != nil {
		return core.Pache{}, err
	}
	expenses, err := s.loadExpenses(ctx, p.ID)
	if err != nil {
		return core.Pache{}, err
	}
	payments, err := s.loadPayments(ctx, p.ID)
	if err != nil {
		return core.Pache{}, err
	}
	p.Members = members
	p.Expenses = expenses
	p.Payments = payments
	return p, nil
}

func (s *Store) loadMembers(ctx context.Context, pacheID string) ([]core.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name FROM members WHERE pache_id = ? ORDER BY position", pacheID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	members := []core.Member{}
	for rows.Next() {
		var m core.Member
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Store) loadExpenses(ctx context.Context, pacheID string) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, description, amount, paid_by_id, date FROM expenses WHERE pache_id = ? ORDER BY position",
		pacheID)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var (
			e            core.Expense
			amount, date string
		)
		if err := rows.Scan(&e.ID, &e.Description, &amount, &e.PaidByID, &date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse expense amount: %w", err)
		}
		if e.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("parse expense date: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	for i := range expenses {
		shares, err := s.loadShares(ctx, expenses[i].ID)
		if err != nil {
			return nil, err
		}
		expenses[i].Shares = shares
	}
	return expenses, nil
}

func (s *Store) loadShares(ctx context.Context, expenseID string) ([]core.ExpenseShare, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id, amount FROM expense_shares WHERE expense_id = ? ORDER BY position",
		expenseID)
	if err != nil {
		return nil, fmt.Errorf("load shares: %w", err)
	}
	defer rows.Close()

	shares := []core.ExpenseShare{}
	for rows.Next() {
		var (
			sh     core.ExpenseShare
			amount string
		)
		if err := rows.Scan(&sh.MemberID, &amount); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		if sh.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse share amount: %w", err)
		}
		shares = append(shares, sh)
	}
	return shares, rows.Err()
}

func (s *Store) loadPayments(ctx context.Context, pacheID string) ([]core.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, from_member_id, to_member_id, amount, date FROM payments WHERE pache_id = ? ORDER BY position",
		pacheID)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	defer rows.Close()

	payments := []core.Payment{}
	for rows.Next() {
		var (
			pay          core.Payment
			amount, date string
		)
		if err := rows.Scan(&pay.ID, &pay.FromMemberID, &pay.ToMemberID, &amount, &date); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if pay.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse payment amount: %w", err)
		}
		if pay.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("parse payment date: %w", err)
		}
		payments = append(payments, pay)
	}
	return payments, rows.Err()
}

func (s *Store) CreatePache(ctx context.Context, p core.Pache) error {
	return s.writePache(ctx, p, true)
}

func (s *Store) SavePache(ctx context.Context, p core.Pache) error {
	return s.writePache(ctx, p, false)
}

// writePache replaces the pache row and all of its children in one
// transaction. Snapshots are small, so the full rewrite keeps the store
// trivially consistent with the in-memory model.
func (s *Store) writePache(ctx context.Context, p core.Pache, create bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, "SELECT id FROM paches WHERE id = ?", p.ID).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if !create {
			return fmt.Errorf("%w: pache %s", core.ErrNotFound, p.ID)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO paches (id, name) VALUES (?, ?)", p.ID, p.Name); err != nil {
			return fmt.Errorf("insert pache: %w", err)
		}
	case err != nil:
		return fmt.Errorf("check pache: %w", err)
	default:
		if create {
			return fmt.Errorf("pache %s already exists", p.ID)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE paches SET name = ? WHERE id = ?", p.Name, p.ID); err != nil {
			return fmt.Errorf("update pache: %w", err)
		}
	}

	for _, table := range []string{"members", "expenses", "payments"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE pache_id = ?", p.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, m := range p.Members {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO members (id, pache_id, name, position) VALUES (?, ?, ?, ?)",
			m.ID, p.ID, m.Name, i); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}
	for i, e := range p.Expenses {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO expenses (id, pache_id, description, amount, paid_by_id, date, position) VALUES (?, ?, ?, ?, ?, ?, ?)",
			e.ID, p.ID, e.Description, e.Amount.String(), e.PaidByID, e.Date.Format(time.RFC3339Nano), i); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		for j, sh := range e.Shares {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO expense_shares (expense_id, member_id, amount, position) VALUES (?, ?, ?, ?)",
				e.ID, sh.MemberID, sh.Amount.String(), j); err != nil {
				return fmt.Errorf("insert share: %w", err)
			}
		}
	}
	for i, pay := range p.Payments {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO payments (id, pache_id, from_member_id, to_member_id, amount, date, position) VALUES (?, ?, ?, ?, ?, ?, ?)",
			pay.ID, p.ID, pay.FromMemberID, pay.ToMemberID, pay.Amount.String(), pay.Date.Format(time.RFC3339Nano), i); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) DeletePache(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM paches WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete pache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pache: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: pache %s", core.ErrNotFound, id)
	}
	return nil
}
