package settlement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laulowcode/atm-cli/internal/ledger"
)

func newTestTransfer(f *fixture) *Transfer {
	return NewTransfer(f.accounts, f.debts, WithClock(clock))
}

func TestTransferValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.account(t, "Alice", 100)
	f.account(t, "Bob", 50)
	tr := newTestTransfer(f)

	tests := []struct {
		name     string
		sender   string
		receiver string
		amount   int64
		want     error
	}{
		{name: "same party", sender: "Alice", receiver: "Alice", amount: 50, want: ledger.ErrSameParty},
		{name: "zero amount", sender: "Alice", receiver: "Bob", amount: 0, want: ledger.ErrInvalidAmount},
		{name: "negative amount", sender: "Alice", receiver: "Bob", amount: -100, want: ledger.ErrInvalidAmount},
		{name: "unknown sender", sender: "James", receiver: "Bob", amount: 50, want: ledger.ErrSenderNotFound},
		{name: "unknown receiver", sender: "Alice", receiver: "James", amount: 50, want: ledger.ErrReceiverNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Execute(f.ctx, tt.sender, tt.receiver, dec(tt.amount))
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, f.accounts.saves)
}

func TestTransferFullCash(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.account(t, "Alice", 100)
	f.account(t, "Bob", 50)

	res, err := newTestTransfer(f).Execute(f.ctx, "Alice", "Bob", dec(50))
	require.NoError(t, err)

	assertAmount(t, 50, res.Amount)
	assertAmount(t, 50, res.SenderNewBalance)
	assertAmount(t, 50, res.CashTransferred)
	assertAmount(t, 0, res.DebtCreated)
	assertAmount(t, 0, res.DebtReduced)
	assertAmount(t, 0, res.ReceiverOwesBack)
	assertAmount(t, 100, f.balance(t, "Bob"))
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, f.accounts.saves)
	_, ok := f.debtAmount(t, "Alice", "Bob")
	assert.False(t, ok)
}

func TestTransferCreatesDebtForShortfall(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.account(t, "Alice", 100)
	f.account(t, "Bob", 50)

	res, err := newTestTransfer(f).Execute(f.ctx, "Alice", "Bob", dec(150))
	require.NoError(t, err)

	assertAmount(t, 0, res.SenderNewBalance)
	assertAmount(t, 100, res.CashTransferred)
	assertAmount(t, 50, res.DebtCreated)
	assertAmount(t, 150, f.balance(t, "Bob"))
	amount, ok := f.debtAmount(t, "Alice", "Bob")
	require.True(t, ok)
	assertAmount(t, 50, amount)
}

func TestTransferIncreasesExistingDebt(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.account(t, "Alice", 100)
	f.account(t, "Bob", 50)
	f.debt(t, "Alice", "Bob", 100)

	res, err := newTestTransfer(f).Execute(f.ctx, "Alice", "Bob", dec(150))
	require.NoError(t, err)

	assertAmount(t, 100, res.CashTransferred)
	assertAmount(t, 50, res.DebtCreated)
	amount, ok := f.debtAmount(t, "Alice", "Bob")
	require.True(t, ok)
	assertAmount(t, 150, amount)

	debts, err := f.debts.FindDebtsByDebtor(f.ctx, "Alice")
	require.NoError(t, err)
	assert.Len(t, debts, 1)
}

func TestTransferWithZeroBalanceOnlyCreatesDebt(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.account(t, "Alice", 0)
	f.account(t, "Bob", 50)

	res, err := newTestTransfer(f).Execute(f.ctx, "Alice", "Bob", dec(100))
	require.NoError(t, err)

	assertAmount(t, 0, res.SenderNewBalance)
	assertAmount(t, 0, res.CashTransferred)
	assertAmount(t, 100, res.DebtCreated)
	assert.Empty(t, f.accounts.saves)
	amount, ok := f.debtAmount(t, "Alice", "Bob")
	require.True(t, ok)
	assertAmount(t, 100, amount)
}

func TestTransferForgivesReceiverDebtFirst(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.account(t, "Alice", 100)
	f.account(t, "Bob", 0)
	f.debt(t, "Bob", "Alice", 70)

	res, err := newTestTransfer(f).Execute(f.ctx, "Alice", "Bob", dec(50))
	require.NoError(t, err)

	assertAmount(t, 50, res.DebtReduced)
	assertAmount(t, 0, res.CashTransferred)
	assertAmount(t, 0, res.DebtCreated)
	assertAmount(t, 100, res.SenderNewBalance)
	assertAmount(t, 20, res.ReceiverOwesBack)
	assertAmount(t, 100, f.balance(t, "Alice"))
	assertAmount(t, 0, f.balance(t, "Bob"))
	assert.Empty(t, f.accounts.saves)

	amount, ok := f.debtAmount(t, "Bob", "Alice")
	require.True(t, ok)
	assertAmount(t, 20, amount)
}

func TestTransferClearsReverseDebtThenMovesCash(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.account(t, "Alice", 100)
	f.account(t, "Bob", 0)
	f.debt(t, "Bob", "Alice", 30)

	res, err := newTestTransfer(f).Execute(f.ctx, "Alice", "Bob", dec(50))
	require.NoError(t, err)

	assertAmount(t, 30, res.DebtReduced)
	assertAmount(t, 20, res.CashTransferred)
	assertAmount(t, 0, res.DebtCreated)
	assertAmount(t, 0, res.ReceiverOwesBack)
	assertAmount(t, 80, res.SenderNewBalance)
	assertAmount(t, 20, f.balance(t, "Bob"))
	_, ok := f.debtAmount(t, "Bob", "Alice")
	assert.False(t, ok)
}

func TestTransferAppliesAllThreeSteps(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.account(t, "Alice", 15)
	f.account(t, "Bob", 0)
	f.debt(t, "Bob", "Alice", 10)

	res, err := newTestTransfer(f).Execute(f.ctx, "Alice", "Bob", dec(50))
	require.NoError(t, err)

	assertAmount(t, 10, res.DebtReduced)
	assertAmount(t, 15, res.CashTransferred)
	assertAmount(t, 25, res.DebtCreated)
	assertAmount(t, 0, res.ReceiverOwesBack)
	assert.True(t, res.Amount.Equal(res.DebtReduced.Add(res.CashTransferred).Add(res.DebtCreated)))

	_, ok := f.debtAmount(t, "Bob", "Alice")
	assert.False(t, ok)
	amount, ok := f.debtAmount(t, "Alice", "Bob")
	require.True(t, ok)
	assertAmount(t, 25, amount)
	f.assertNoNonPositiveDebts(t, "Alice", "Bob")
}

func TestTransferKeepsSubCentAmounts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.account(t, "Alice", 0)
	f.account(t, "Bob", 0)
	tiny := decimal.RequireFromString("0.00005")

	res, err := newTestTransfer(f).Execute(f.ctx, "Alice", "Bob", tiny)
	require.NoError(t, err)
	assert.True(t, res.DebtCreated.Equal(tiny), "debt created = %s", res.DebtCreated)

	amount, ok := f.debtAmount(t, "Alice", "Bob")
	require.True(t, ok)
	assert.True(t, amount.Equal(tiny), "stored debt = %s", amount)

	_, err = NewDeposit(f.accounts, f.debts, WithClock(clock)).Execute(f.ctx, "Alice", decimal.RequireFromString("0.00002"))
	require.NoError(t, err)
	amount, ok = f.debtAmount(t, "Alice", "Bob")
	require.True(t, ok)
	assert.True(t, amount.Equal(decimal.RequireFromString("0.00003")), "leftover debt = %s", amount)
	assert.True(t, f.balance(t, "Bob").Equal(decimal.RequireFromString("0.00002")))
}
