package settlement

import (
	"fmt"
	"slices"
	"strings"

	"github.com/laulowcode/atm-cli/internal/ledger"
)

// Strategy orders a debtor's debts before a deposit is applied to them.
// Implementations return a new slice holding exactly the input debts and never
// mutate the debts themselves.
type Strategy interface {
	Sort(debts []*ledger.Debt) []*ledger.Debt
}

// OldestFirst keeps store order, which is creation order.
type OldestFirst struct{}

func (OldestFirst) Sort(debts []*ledger.Debt) []*ledger.Debt {
	return slices.Clone(debts)
}

// HighestAmountFirst pays the largest debts first. Ties keep store order.
type HighestAmountFirst struct{}

func (HighestAmountFirst) Sort(debts []*ledger.Debt) []*ledger.Debt {
	out := slices.Clone(debts)
	slices.SortStableFunc(out, func(a, b *ledger.Debt) int {
		return b.Amount.Cmp(a.Amount)
	})
	return out
}

// SmallestAmountFirst pays the smallest debts first, clearing as many edges
// as possible. Ties keep store order.
type SmallestAmountFirst struct{}

func (SmallestAmountFirst) Sort(debts []*ledger.Debt) []*ledger.Debt {
	out := slices.Clone(debts)
	slices.SortStableFunc(out, func(a, b *ledger.Debt) int {
		return a.Amount.Cmp(b.Amount)
	})
	return out
}

// StrategyByName resolves a configured strategy name. Empty selects OldestFirst.
func StrategyByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "oldest":
		return OldestFirst{}, nil
	case "highest":
		return HighestAmountFirst{}, nil
	case "smallest":
		return SmallestAmountFirst{}, nil
	}
	return nil, fmt.Errorf("unknown debt strategy %q", name)
}
