// Package memory provides in-process account and debt stores. Stores hand out
// copies, so callers persist every mutation explicitly just as they would
// against a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/laulowcode/atm-cli/internal/ledger"
)

// AccountStore keeps accounts in a map keyed by name.
type AccountStore struct {
	data map[string]*ledger.Account
	mu   sync.RWMutex
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		data: make(map[string]*ledger.Account),
	}
}

func (s *AccountStore) FindByName(ctx context.Context, name string) (*ledger.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.data[name]
	if !exists {
		return nil, ledger.ErrNotFound
	}
	return account.Clone(), nil
}

func (s *AccountStore) Save(ctx context.Context, account *ledger.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[account.Name] = account.Clone()
	return nil
}

func (s *AccountStore) ListAccounts(ctx context.Context) ([]*ledger.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ledger.Account, 0, len(s.data))
	for _, account := range s.data {
		out = append(out, account.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DebtStore keeps debt edges in creation order.
type DebtStore struct {
	debts []*ledger.Debt
	mu    sync.RWMutex
}

func NewDebtStore() *DebtStore {
	return &DebtStore{}
}

func (s *DebtStore) FindDebtsByDebtor(ctx context.Context, debtorName string) ([]*ledger.Debt, error) {
	return s.filter(ctx, func(d *ledger.Debt) bool { return d.DebtorName == debtorName })
}

func (s *DebtStore) FindDebtsByCreditor(ctx context.Context, creditorName string) ([]*ledger.Debt, error) {
	return s.filter(ctx, func(d *ledger.Debt) bool { return d.CreditorName == creditorName })
}

func (s *DebtStore) FindDebtBetween(ctx context.Context, debtorName, creditorName string) (*ledger.Debt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(debtorName, creditorName); i >= 0 {
		return s.debts[i].Clone(), nil
	}
	return nil, ledger.ErrNotFound
}

func (s *DebtStore) Save(ctx context.Context, debt *ledger.Debt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !debt.Amount.IsPositive() {
		return ledger.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(debt.DebtorName, debt.CreditorName); i >= 0 {
		s.debts[i] = debt.Clone()
		return nil
	}
	s.debts = append(s.debts, debt.Clone())
	return nil
}

func (s *DebtStore) Remove(ctx context.Context, debt *ledger.Debt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(debt.DebtorName, debt.CreditorName); i >= 0 {
		s.debts = append(s.debts[:i], s.debts[i+1:]...)
	}
	return nil
}

func (s *DebtStore) filter(ctx context.Context, keep func(*ledger.Debt) bool) ([]*ledger.Debt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ledger.Debt
	for _, debt := range s.debts {
		if keep(debt) {
			out = append(out, debt.Clone())
		}
	}
	return out, nil
}

// indexOf must be called with mu held.
func (s *DebtStore) indexOf(debtorName, creditorName string) int {
	for i, debt := range s.debts {
		if debt.DebtorName == debtorName && debt.CreditorName == creditorName {
			return i
		}
	}
	return -1
}
