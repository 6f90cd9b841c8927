// Package settlement applies deposits and transfers against outstanding debt
// before touching cash balances.
package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/laulowcode/atm-cli/internal/ledger"
)

// DepositResult is the outcome of a deposit.
type DepositResult struct {
	Balance        decimal.Decimal
	Logs           []string
	RemainingDebts []*ledger.Debt
}

// Deposit settles incoming money against the depositor's debts, forwarding
// each payment through the creditor's own debts, and credits what is left.
type Deposit struct {
	accounts ledger.AccountStore
	debts    ledger.DebtStore
	opts     options
}

func NewDeposit(accounts ledger.AccountStore, debts ledger.DebtStore, opts ...Option) *Deposit {
	return &Deposit{
		accounts: accounts,
		debts:    debts,
		opts:     newOptions(opts),
	}
}

// walk is the state shared by one top-level deposit and all chained payments
// it triggers.
type walk struct {
	visited map[string]struct{}
	logs    []string
}

// Execute deposits amount for name. Debt and account writes are committed as
// the walk proceeds; a failure midway leaves earlier writes in place.
func (d *Deposit) Execute(ctx context.Context, name string, amount decimal.Decimal) (DepositResult, error) {
	if !amount.IsPositive() {
		return DepositResult{}, ledger.ErrInvalidAmount
	}
	if _, err := d.findAccount(ctx, name); err != nil {
		return DepositResult{}, err
	}

	w := &walk{visited: make(map[string]struct{}), logs: []string{}}
	remaining, err := d.settle(ctx, w, name, amount)
	if err != nil {
		return DepositResult{Logs: w.logs}, err
	}

	// The walk may run for a while; this lookup is the authoritative one.
	account, err := d.findAccount(ctx, name)
	if err != nil {
		return DepositResult{Logs: w.logs}, err
	}
	if remaining.IsPositive() {
		if err := account.Deposit(remaining); err != nil {
			return DepositResult{Logs: w.logs}, err
		}
		if err := d.accounts.Save(ctx, account); err != nil {
			return DepositResult{Logs: w.logs}, fmt.Errorf("save account %s: %w", name, err)
		}
	}

	remainingDebts, err := d.debts.FindDebtsByDebtor(ctx, name)
	if err != nil {
		return DepositResult{Logs: w.logs}, fmt.Errorf("find debts of %s: %w", name, err)
	}
	return DepositResult{
		Balance:        account.Balance,
		Logs:           w.logs,
		RemainingDebts: remainingDebts,
	}, nil
}

// settle pays name's debts out of amount and returns the part it could not
// place. Each account is settled at most once per walk, which keeps circular
// debt graphs finite: a revisited account absorbs nothing and returns zero.
func (d *Deposit) settle(ctx context.Context, w *walk, name string, amount decimal.Decimal) (decimal.Decimal, error) {
	if _, seen := w.visited[name]; seen {
		return decimal.Zero, nil
	}
	w.visited[name] = struct{}{}

	if _, err := d.findAccount(ctx, name); err != nil {
		return decimal.Zero, err
	}
	debts, err := d.debts.FindDebtsByDebtor(ctx, name)
	if err != nil {
		return decimal.Zero, fmt.Errorf("find debts of %s: %w", name, err)
	}

	remaining := amount
	for _, debt := range d.opts.strategy.Sort(debts) {
		if !remaining.IsPositive() {
			break
		}
		if !debt.Amount.IsPositive() {
			continue
		}

		creditor, err := d.accounts.FindByName(ctx, debt.CreditorName)
		if errors.Is(err, ledger.ErrNotFound) {
			d.opts.logger.Warn("skipping debt to missing creditor",
				zap.String("debtor", name),
				zap.String("creditor", debt.CreditorName),
			)
			continue
		}
		if err != nil {
			return remaining, fmt.Errorf("find creditor %s: %w", debt.CreditorName, err)
		}

		payment := decimal.Min(remaining, debt.Amount)
		if err := d.applyPayment(ctx, debt, payment); err != nil {
			return remaining, err
		}
		remaining = remaining.Sub(payment)
		w.logs = append(w.logs, fmt.Sprintf("Transferred %s to %s", payment, debt.CreditorName))

		unsettled, err := d.settle(ctx, w, debt.CreditorName, payment)
		if err != nil {
			return remaining, err
		}
		if unsettled.IsPositive() {
			if err := creditor.Deposit(unsettled); err != nil {
				return remaining, err
			}
			if err := d.accounts.Save(ctx, creditor); err != nil {
				return remaining, fmt.Errorf("save account %s: %w", creditor.Name, err)
			}
		}
	}
	return remaining, nil
}

func (d *Deposit) applyPayment(ctx context.Context, debt *ledger.Debt, payment decimal.Decimal) error {
	settled, err := debt.MakePayment(payment, d.opts.now())
	if err != nil {
		return err
	}
	d.opts.logger.Debug("debt payment",
		zap.String("debtor", debt.DebtorName),
		zap.String("creditor", debt.CreditorName),
		zap.Stringer("amount", payment),
		zap.Bool("settled", settled),
	)
	if settled {
		if err := d.debts.Remove(ctx, debt); err != nil {
			return fmt.Errorf("remove debt %s->%s: %w", debt.DebtorName, debt.CreditorName, err)
		}
		return nil
	}
	if err := d.debts.Save(ctx, debt); err != nil {
		return fmt.Errorf("save debt %s->%s: %w", debt.DebtorName, debt.CreditorName, err)
	}
	return nil
}

func (d *Deposit) findAccount(ctx context.Context, name string) (*ledger.Account, error) {
	account, err := d.accounts.FindByName(ctx, name)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, ledger.AccountNotFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", name, err)
	}
	return account, nil
}
