// Package sqlite provides SQLite-backed account and debt stores.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/laulowcode/atm-cli/internal/ledger"
	"github.com/laulowcode/atm-cli/internal/storage/sqlite/migrations"
	"github.com/laulowcode/atm-cli/internal/storage/sqlitemigrate"
)

// Store owns the SQLite handle shared by the account and debt stores.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the ledger database at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	ctx := context.Background()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Accounts() *AccountStore { return &AccountStore{sqlDB: s.sqlDB} }

func (s *Store) Debts() *DebtStore { return &DebtStore{sqlDB: s.sqlDB} }

type AccountStore struct {
	sqlDB *sql.DB
}

func (s *AccountStore) FindByName(ctx context.Context, name string) (*ledger.Account, error) {
	account := &ledger.Account{}
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT name, balance FROM accounts WHERE name = ?`, name,
	).Scan(&account.Name, &account.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	return account, nil
}

func (s *AccountStore) Save(ctx context.Context, account *ledger.Account) error {
	if account == nil || strings.TrimSpace(account.Name) == "" {
		return ledger.ErrInvalidName
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO accounts (name, balance) VALUES (?, ?)
		 ON CONFLICT (name) DO UPDATE SET balance = excluded.balance`,
		account.Name, account.Balance.String(),
	)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (s *AccountStore) ListAccounts(ctx context.Context) ([]*ledger.Account, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT name, balance FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*ledger.Account{}
	for rows.Next() {
		account := &ledger.Account{}
		if err := rows.Scan(&account.Name, &account.Balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// DebtStore keeps one row per (debtor, creditor) edge; the row id preserves
// creation order across updates.
type DebtStore struct {
	sqlDB *sql.DB
}

const selectDebts = `SELECT debtor_name, creditor_name, amount FROM debts`

func (s *DebtStore) FindDebtsByDebtor(ctx context.Context, debtor string) ([]*ledger.Debt, error) {
	return s.query(ctx, selectDebts+` WHERE debtor_name = ? ORDER BY id`, debtor)
}

func (s *DebtStore) FindDebtsByCreditor(ctx context.Context, creditor string) ([]*ledger.Debt, error) {
	return s.query(ctx, selectDebts+` WHERE creditor_name = ? ORDER BY id`, creditor)
}

func (s *DebtStore) FindDebtBetween(ctx context.Context, debtor, creditor string) (*ledger.Debt, error) {
	debts, err := s.query(ctx, selectDebts+` WHERE debtor_name = ? AND creditor_name = ?`, debtor, creditor)
	if err != nil {
		return nil, err
	}
	if len(debts) == 0 {
		return nil, ledger.ErrNotFound
	}
	return debts[0], nil
}

// Save upserts the edge and appends payments not yet stored.
func (s *DebtStore) Save(ctx context.Context, debt *ledger.Debt) error {
	if debt == nil || !debt.Amount.IsPositive() {
		return ledger.ErrInvalidAmount
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save debt: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO debts (debtor_name, creditor_name, amount, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (debtor_name, creditor_name) DO UPDATE SET amount = excluded.amount`,
		debt.DebtorName, debt.CreditorName, debt.Amount.String(), toMillis(time.Now()),
	); err != nil {
		return fmt.Errorf("save debt: %w", err)
	}
	for i, p := range debt.Payments {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO debt_payments (debtor_name, creditor_name, seq, amount, paid_at)
			 VALUES (?, ?, ?, ?, ?)`,
			debt.DebtorName, debt.CreditorName, i, p.Amount.String(), toMillis(p.PaidAt),
		); err != nil {
			return fmt.Errorf("save debt payment: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save debt: %w", err)
	}
	return nil
}

func (s *DebtStore) Remove(ctx context.Context, debt *ledger.Debt) error {
	if debt == nil {
		return nil
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove debt: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM debt_payments WHERE debtor_name = ? AND creditor_name = ?`,
		`DELETE FROM debts WHERE debtor_name = ? AND creditor_name = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, debt.DebtorName, debt.CreditorName); err != nil {
			return fmt.Errorf("remove debt: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove debt: %w", err)
	}
	return nil
}

func (s *DebtStore) query(ctx context.Context, query string, args ...any) ([]*ledger.Debt, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query debts: %w", err)
	}
	debts := []*ledger.Debt{}
	for rows.Next() {
		debt := &ledger.Debt{}
		if err := rows.Scan(&debt.DebtorName, &debt.CreditorName, &debt.Amount); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate debts: %w", err)
	}
	_ = rows.Close()

	for _, debt := range debts {
		payments, err := s.payments(ctx, debt.DebtorName, debt.CreditorName)
		if err != nil {
			return nil, err
		}
		debt.Payments = payments
	}
	return debts, nil
}

func (s *DebtStore) payments(ctx context.Context, debtor, creditor string) ([]ledger.Payment, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT amount, paid_at FROM debt_payments
		 WHERE debtor_name = ? AND creditor_name = ? ORDER BY seq`,
		debtor, creditor,
	)
	if err != nil {
		return nil, fmt.Errorf("query debt payments: %w", err)
	}
	defer rows.Close()

	var payments []ledger.Payment
	for rows.Next() {
		var (
			amount decimal.Decimal
			paidAt int64
		)
		if err := rows.Scan(&amount, &paidAt); err != nil {
			return nil, fmt.Errorf("scan debt payment: %w", err)
		}
		payments = append(payments, ledger.Payment{Amount: amount, PaidAt: fromMillis(paidAt)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate debt payments: %w", err)
	}
	return payments, nil
}
