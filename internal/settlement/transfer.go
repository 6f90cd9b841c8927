package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/laulowcode/atm-cli/internal/ledger"
)

// TransferResult is the outcome of a transfer. Amount equals
// DebtReduced + CashTransferred + DebtCreated.
type TransferResult struct {
	SenderName       string
	ReceiverName     string
	Amount           decimal.Decimal
	SenderNewBalance decimal.Decimal
	CashTransferred  decimal.Decimal
	DebtReduced      decimal.Decimal
	DebtCreated      decimal.Decimal
	// ReceiverOwesBack is what the receiver still owes the sender afterwards.
	ReceiverOwesBack decimal.Decimal
}

// Transfer moves money between two accounts: it first forgives debt the
// receiver owes the sender, then moves cash, then records the shortfall as
// new debt from sender to receiver. It never chains into third parties.
type Transfer struct {
	accounts ledger.AccountStore
	debts    ledger.DebtStore
	opts     options
}

func NewTransfer(accounts ledger.AccountStore, debts ledger.DebtStore, opts ...Option) *Transfer {
	return &Transfer{
		accounts: accounts,
		debts:    debts,
		opts:     newOptions(opts),
	}
}

func (t *Transfer) Execute(ctx context.Context, senderName, receiverName string, amount decimal.Decimal) (TransferResult, error) {
	if senderName == receiverName {
		return TransferResult{}, ledger.ErrSameParty
	}
	if !amount.IsPositive() {
		return TransferResult{}, ledger.ErrInvalidAmount
	}

	sender, err := t.findAccount(ctx, senderName, ledger.SenderNotFound)
	if err != nil {
		return TransferResult{}, err
	}
	receiver, err := t.findAccount(ctx, receiverName, ledger.ReceiverNotFound)
	if err != nil {
		return TransferResult{}, err
	}

	result := TransferResult{
		SenderName:       senderName,
		ReceiverName:     receiverName,
		Amount:           amount,
		CashTransferred:  decimal.Zero,
		DebtReduced:      decimal.Zero,
		DebtCreated:      decimal.Zero,
		ReceiverOwesBack: decimal.Zero,
	}
	remaining := amount

	// Forgive what the receiver owes the sender; no cash moves.
	reverse, err := t.findDebt(ctx, receiverName, senderName)
	if err != nil {
		return result, err
	}
	if reverse != nil && reverse.Amount.IsPositive() {
		reduced := decimal.Min(remaining, reverse.Amount)
		settled, err := reverse.MakePayment(reduced, t.opts.now())
		if err != nil {
			return result, err
		}
		if settled {
			err = t.debts.Remove(ctx, reverse)
		} else {
			err = t.debts.Save(ctx, reverse)
		}
		if err != nil {
			return result, fmt.Errorf("update debt %s->%s: %w", receiverName, senderName, err)
		}
		remaining = remaining.Sub(reduced)
		result.DebtReduced = reduced
		result.ReceiverOwesBack = reverse.Amount
	}

	if remaining.IsPositive() {
		cash := decimal.Min(sender.Balance, remaining)
		if cash.IsPositive() {
			if !sender.Withdraw(cash) {
				return result, ledger.ErrInsufficientBalance
			}
			if err := receiver.Deposit(cash); err != nil {
				return result, err
			}
			if err := t.accounts.Save(ctx, receiver); err != nil {
				return result, fmt.Errorf("save account %s: %w", receiverName, err)
			}
			if err := t.accounts.Save(ctx, sender); err != nil {
				return result, fmt.Errorf("save account %s: %w", senderName, err)
			}
			remaining = remaining.Sub(cash)
			result.CashTransferred = cash
		}
	}

	if remaining.IsPositive() {
		if err := t.recordShortfall(ctx, senderName, receiverName, remaining); err != nil {
			return result, err
		}
		result.DebtCreated = remaining
	}

	result.SenderNewBalance = sender.Balance
	t.opts.logger.Debug("transfer settled",
		zap.String("sender", senderName),
		zap.String("receiver", receiverName),
		zap.Stringer("debt_reduced", result.DebtReduced),
		zap.Stringer("cash_transferred", result.CashTransferred),
		zap.Stringer("debt_created", result.DebtCreated),
	)
	return result, nil
}

func (t *Transfer) recordShortfall(ctx context.Context, senderName, receiverName string, amount decimal.Decimal) error {
	debt, err := t.findDebt(ctx, senderName, receiverName)
	if err != nil {
		return err
	}
	if debt != nil {
		if err := debt.IncreaseDebt(amount); err != nil {
			return err
		}
	} else {
		debt, err = ledger.NewDebt(senderName, receiverName, amount)
		if err != nil {
			return err
		}
	}
	if err := t.debts.Save(ctx, debt); err != nil {
		return fmt.Errorf("save debt %s->%s: %w", senderName, receiverName, err)
	}
	return nil
}

func (t *Transfer) findAccount(ctx context.Context, name string, notFound func(string) *ledger.Error) (*ledger.Account, error) {
	account, err := t.accounts.FindByName(ctx, name)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", name, err)
	}
	return account, nil
}

// findDebt returns nil without error when the edge does not exist.
func (t *Transfer) findDebt(ctx context.Context, debtorName, creditorName string) (*ledger.Debt, error) {
	debt, err := t.debts.FindDebtBetween(ctx, debtorName, creditorName)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find debt %s->%s: %w", debtorName, creditorName, err)
	}
	return debt, nil
}
