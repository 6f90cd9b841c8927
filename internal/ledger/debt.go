package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment records one reduction of a debt.
type Payment struct {
	Amount decimal.Decimal
	PaidAt time.Time
}

// Debt is a directed obligation: DebtorName owes CreditorName Amount.
// Amount stays strictly positive while the debt is stored.
type Debt struct {
	DebtorName   string
	CreditorName string
	Amount       decimal.Decimal
	Payments     []Payment
}

// NewDebt creates a debt edge between two distinct accounts.
func NewDebt(debtorName, creditorName string, amount decimal.Decimal) (*Debt, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if debtorName == creditorName {
		return nil, ErrSameParty
	}
	return &Debt{
		DebtorName:   debtorName,
		CreditorName: creditorName,
		Amount:       amount,
	}, nil
}

// MakePayment reduces the debt by amount and appends a payment record.
// It reports whether the debt is fully settled.
func (d *Debt) MakePayment(amount decimal.Decimal, at time.Time) (bool, error) {
	if !amount.IsPositive() {
		return false, ErrInvalidAmount
	}
	if amount.GreaterThan(d.Amount) {
		return false, New(CodeInvalidAmount, "amount must be less than or equal to the debt amount")
	}
	d.Amount = d.Amount.Sub(amount)
	d.Payments = append(d.Payments, Payment{Amount: amount, PaidAt: at})
	return d.Amount.IsZero(), nil
}

// IncreaseDebt adds amount to the outstanding debt.
func (d *Debt) IncreaseDebt(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	d.Amount = d.Amount.Add(amount)
	return nil
}

// Clone returns a deep copy, payments included.
func (d *Debt) Clone() *Debt {
	c := *d
	if d.Payments != nil {
		c.Payments = append([]Payment(nil), d.Payments...)
	}
	return &c
}
