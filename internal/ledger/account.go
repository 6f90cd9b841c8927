// Package ledger holds the account and debt entities and the storage
// contracts the settlement engine runs against.
package ledger

import "github.com/shopspring/decimal"

// Account is a named cash balance. The balance never goes negative.
type Account struct {
	Name    string
	Balance decimal.Decimal
}

// NewAccount returns an account with a zero balance.
func NewAccount(name string) *Account {
	return &Account{Name: name, Balance: decimal.Zero}
}

// Deposit adds amount to the balance.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

// Withdraw removes amount from the balance. It reports false and leaves the
// balance untouched when amount is not positive or exceeds the balance.
func (a *Account) Withdraw(amount decimal.Decimal) bool {
	if !amount.IsPositive() || amount.GreaterThan(a.Balance) {
		return false
	}
	a.Balance = a.Balance.Sub(amount)
	return true
}

func (a *Account) Clone() *Account {
	c := *a
	return &c
}
