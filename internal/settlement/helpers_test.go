package settlement

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laulowcode/atm-cli/internal/ledger"
	"github.com/laulowcode/atm-cli/internal/storage/memory"
)

var fixedNow = time.Date(2026, time.October, 1, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func assertAmount(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if len(msgAndArgs) == 0 {
		msgAndArgs = []any{"got %s, want %d", got, want}
	}
	assert.True(t, got.Equal(dec(want)), msgAndArgs...)
}

// countingAccounts records Save calls on top of a memory store.
type countingAccounts struct {
	*memory.AccountStore
	mu    sync.Mutex
	saves []string
}

func (c *countingAccounts) Save(ctx context.Context, account *ledger.Account) error {
	c.mu.Lock()
	c.saves = append(c.saves, account.Name)
	c.mu.Unlock()
	return c.AccountStore.Save(ctx, account)
}

// vanishingAccounts reports one account as missing once it has been looked up
// more than `after` times.
type vanishingAccounts struct {
	*memory.AccountStore
	name    string
	after   int
	lookups int
}

func (v *vanishingAccounts) FindByName(ctx context.Context, name string) (*ledger.Account, error) {
	if name == v.name {
		v.lookups++
		if v.lookups > v.after {
			return nil, ledger.ErrNotFound
		}
	}
	return v.AccountStore.FindByName(ctx, name)
}

type fixture struct {
	ctx      context.Context
	accounts *countingAccounts
	debts    *memory.DebtStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		ctx:      context.Background(),
		accounts: &countingAccounts{AccountStore: memory.NewAccountStore()},
		debts:    memory.NewDebtStore(),
	}
}

func (f *fixture) account(t *testing.T, name string, balance int64) {
	t.Helper()
	require.NoError(t, f.accounts.AccountStore.Save(f.ctx, &ledger.Account{Name: name, Balance: dec(balance)}))
}

func (f *fixture) debt(t *testing.T, debtor, creditor string, amount int64) {
	t.Helper()
	debt, err := ledger.NewDebt(debtor, creditor, dec(amount))
	require.NoError(t, err)
	require.NoError(t, f.debts.Save(f.ctx, debt))
}

func (f *fixture) balance(t *testing.T, name string) decimal.Decimal {
	t.Helper()
	acc, err := f.accounts.FindByName(f.ctx, name)
	require.NoError(t, err)
	return acc.Balance
}

// debtAmount returns the stored amount and whether the edge exists.
func (f *fixture) debtAmount(t *testing.T, debtor, creditor string) (decimal.Decimal, bool) {
	t.Helper()
	debt, err := f.debts.FindDebtBetween(f.ctx, debtor, creditor)
	if err != nil {
		require.ErrorIs(t, err, ledger.ErrNotFound)
		return decimal.Zero, false
	}
	return debt.Amount, true
}

// assertNoNonPositiveDebts checks every edge reachable from names.
func (f *fixture) assertNoNonPositiveDebts(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		debts, err := f.debts.FindDebtsByDebtor(f.ctx, name)
		require.NoError(t, err)
		for _, debt := range debts {
			assert.True(t, debt.Amount.IsPositive(), "debt %s->%s stored with amount %s", debt.DebtorName, debt.CreditorName, debt.Amount)
		}
	}
}
