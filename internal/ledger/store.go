package ledger

import "context"

// AccountStore persists accounts keyed by name.
type AccountStore interface {
	// FindByName returns ErrNotFound when no account has the name.
	FindByName(ctx context.Context, name string) (*Account, error)
	// Save upserts the account by name.
	Save(ctx context.Context, account *Account) error
	ListAccounts(ctx context.Context) ([]*Account, error)
}

// DebtStore persists debt edges, at most one per ordered (debtor, creditor) pair.
type DebtStore interface {
	// FindDebtsByDebtor returns the debtor's debts oldest first.
	FindDebtsByDebtor(ctx context.Context, debtorName string) ([]*Debt, error)
	// FindDebtsByCreditor returns debts owed to the creditor oldest first.
	FindDebtsByCreditor(ctx context.Context, creditorName string) ([]*Debt, error)
	// FindDebtBetween returns ErrNotFound when the edge does not exist.
	FindDebtBetween(ctx context.Context, debtorName, creditorName string) (*Debt, error)
	// Save upserts by (debtor, creditor). An existing edge keeps its creation
	// position. Debts with a non-positive amount are rejected.
	Save(ctx context.Context, debt *Debt) error
	// Remove deletes the edge matching the debt's (debtor, creditor) pair.
	Remove(ctx context.Context, debt *Debt) error
}
