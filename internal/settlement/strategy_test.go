package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laulowcode/atm-cli/internal/ledger"
)

func sampleDebts() []*ledger.Debt {
	return []*ledger.Debt{
		{DebtorName: "Alice", CreditorName: "Bob", Amount: dec(20)},
		{DebtorName: "Alice", CreditorName: "Carol", Amount: dec(50)},
		{DebtorName: "Alice", CreditorName: "Dave", Amount: dec(20)},
		{DebtorName: "Alice", CreditorName: "Erin", Amount: dec(5)},
	}
}

func creditors(debts []*ledger.Debt) []string {
	out := make([]string, 0, len(debts))
	for _, debt := range debts {
		out = append(out, debt.CreditorName)
	}
	return out
}

func containsPointer(debts []*ledger.Debt, want *ledger.Debt) bool {
	for _, debt := range debts {
		if debt == want {
			return true
		}
	}
	return false
}

func TestStrategiesReturnPermutationOfSameDebts(t *testing.T) {
	t.Parallel()

	for _, s := range []Strategy{OldestFirst{}, HighestAmountFirst{}, SmallestAmountFirst{}} {
		input := sampleDebts()
		before := append([]*ledger.Debt(nil), input...)

		got := s.Sort(input)

		require.Len(t, got, len(input), "%T", s)
		used := make(map[*ledger.Debt]bool, len(input))
		for _, debt := range got {
			assert.True(t, containsPointer(input, debt), "%T returned a debt not in its input", s)
			assert.False(t, used[debt], "%T returned the same debt twice", s)
			used[debt] = true
		}
		// Input order and debt values are untouched.
		assert.Equal(t, before, input, "%T mutated its input", s)
		assertAmount(t, 50, input[1].Amount)
	}
}

func TestOldestFirstKeepsOrder(t *testing.T) {
	t.Parallel()

	got := OldestFirst{}.Sort(sampleDebts())
	assert.Equal(t, []string{"Bob", "Carol", "Dave", "Erin"}, creditors(got))
	assert.Empty(t, OldestFirst{}.Sort(nil))
}

func TestHighestAmountFirstIsStable(t *testing.T) {
	t.Parallel()

	got := HighestAmountFirst{}.Sort(sampleDebts())
	assert.Equal(t, []string{"Carol", "Bob", "Dave", "Erin"}, creditors(got))
}

func TestSmallestAmountFirstIsStable(t *testing.T) {
	t.Parallel()

	got := SmallestAmountFirst{}.Sort(sampleDebts())
	assert.Equal(t, []string{"Erin", "Bob", "Dave", "Carol"}, creditors(got))
}

func TestStrategyByName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want Strategy
	}{
		{name: "", want: OldestFirst{}},
		{name: "oldest", want: OldestFirst{}},
		{name: "HIGHEST", want: HighestAmountFirst{}},
		{name: " smallest ", want: SmallestAmountFirst{}},
	}
	for _, tt := range tests {
		got, err := StrategyByName(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := StrategyByName("random")
	assert.Error(t, err)
}
