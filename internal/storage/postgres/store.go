package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/laulowcode/atm-cli/internal/ledger"
)

// Amounts cross the wire as text so NUMERIC values keep their exact digits.

type AccountStore struct{ pool *pgxpool.Pool }

func (s *AccountStore) FindByName(ctx context.Context, name string) (*ledger.Account, error) {
	var balance string
	account := &ledger.Account{}
	err := s.pool.QueryRow(ctx,
		`SELECT name, balance::text FROM accounts WHERE name = $1`, name,
	).Scan(&account.Name, &balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	if account.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parse balance of %s: %w", name, err)
	}
	return account, nil
}

func (s *AccountStore) Save(ctx context.Context, account *ledger.Account) error {
	if account == nil || strings.TrimSpace(account.Name) == "" {
		return ledger.ErrInvalidName
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (name, balance) VALUES ($1, $2::text::numeric)
		ON CONFLICT (name) DO UPDATE SET balance = excluded.balance
	`, account.Name, account.Balance.String())
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (s *AccountStore) ListAccounts(ctx context.Context) ([]*ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, balance::text FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := []*ledger.Account{}
	for rows.Next() {
		var (
			name    string
			balance string
		)
		if err := rows.Scan(&name, &balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		amount, err := decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("parse balance of %s: %w", name, err)
		}
		out = append(out, &ledger.Account{Name: name, Balance: amount})
	}
	return out, rows.Err()
}

type DebtStore struct{ pool *pgxpool.Pool }

const selectDebts = `SELECT debtor_name, creditor_name, amount::text FROM debts`

func (s *DebtStore) FindDebtsByDebtor(ctx context.Context, debtor string) ([]*ledger.Debt, error) {
	return s.query(ctx, selectDebts+` WHERE debtor_name = $1 ORDER BY id`, debtor)
}

func (s *DebtStore) FindDebtsByCreditor(ctx context.Context, creditor string) ([]*ledger.Debt, error) {
	return s.query(ctx, selectDebts+` WHERE creditor_name = $1 ORDER BY id`, creditor)
}

func (s *DebtStore) FindDebtBetween(ctx context.Context, debtor, creditor string) (*ledger.Debt, error) {
	debts, err := s.query(ctx, selectDebts+` WHERE debtor_name = $1 AND creditor_name = $2`, debtor, creditor)
	if err != nil {
		return nil, err
	}
	if len(debts) == 0 {
		return nil, ledger.ErrNotFound
	}
	return debts[0], nil
}

func (s *DebtStore) Save(ctx context.Context, debt *ledger.Debt) error {
	if debt == nil || !debt.Amount.IsPositive() {
		return ledger.ErrInvalidAmount
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save debt: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO debts (debtor_name, creditor_name, amount) VALUES ($1, $2, $3::text::numeric)
		ON CONFLICT (debtor_name, creditor_name) DO UPDATE SET amount = excluded.amount
	`, debt.DebtorName, debt.CreditorName, debt.Amount.String()); err != nil {
		return fmt.Errorf("save debt: %w", err)
	}

	batch := &pgx.Batch{}
	for i, p := range debt.Payments {
		batch.Queue(`
			INSERT INTO debt_payments (debtor_name, creditor_name, seq, amount, paid_at)
			VALUES ($1, $2, $3, $4::text::numeric, $5)
			ON CONFLICT DO NOTHING
		`, debt.DebtorName, debt.CreditorName, i, p.Amount.String(), p.PaidAt)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save debt payments: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *DebtStore) Remove(ctx context.Context, debt *ledger.Debt) error {
	if debt == nil {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin remove debt: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM debt_payments WHERE debtor_name = $1 AND creditor_name = $2`,
		debt.DebtorName, debt.CreditorName,
	); err != nil {
		return fmt.Errorf("remove debt payments: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM debts WHERE debtor_name = $1 AND creditor_name = $2`,
		debt.DebtorName, debt.CreditorName,
	); err != nil {
		return fmt.Errorf("remove debt: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *DebtStore) query(ctx context.Context, query string, args ...any) ([]*ledger.Debt, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query debts: %w", err)
	}
	debts := []*ledger.Debt{}
	for rows.Next() {
		var amount string
		debt := &ledger.Debt{}
		if err := rows.Scan(&debt.DebtorName, &debt.CreditorName, &amount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		if debt.Amount, err = decimal.NewFromString(amount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse debt amount: %w", err)
		}
		debts = append(debts, debt)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate debts: %w", err)
	}

	for _, debt := range debts {
		if debt.Payments, err = s.payments(ctx, debt.DebtorName, debt.CreditorName); err != nil {
			return nil, err
		}
	}
	return debts, nil
}

func (s *DebtStore) payments(ctx context.Context, debtor, creditor string) ([]ledger.Payment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT amount::text, paid_at FROM debt_payments
		WHERE debtor_name = $1 AND creditor_name = $2
		ORDER BY seq
	`, debtor, creditor)
	if err != nil {
		return nil, fmt.Errorf("query debt payments: %w", err)
	}
	defer rows.Close()

	var out []ledger.Payment
	for rows.Next() {
		var (
			amount string
			paidAt time.Time
		)
		if err := rows.Scan(&amount, &paidAt); err != nil {
			return nil, fmt.Errorf("scan debt payment: %w", err)
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse payment amount: %w", err)
		}
		out = append(out, ledger.Payment{Amount: value, PaidAt: paidAt.UTC()})
	}
	return out, rows.Err()
}
