package cli

import (
	"fmt"
	"strings"

	"github.com/laulowcode/atm-cli/internal/bank"
	"github.com/laulowcode/atm-cli/internal/ledger"
	"github.com/laulowcode/atm-cli/internal/settlement"
)

func formatLogin(res bank.LoginResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s!\nYour balance is $%s.", res.Name, res.Balance)
	writeDebts(&b, res.DebtsOwed, res.DebtsOwedFromOthers)
	return b.String()
}

// formatDeposit lists each settlement payment before the new balance.
func formatDeposit(res settlement.DepositResult) string {
	var b strings.Builder
	for _, line := range res.Logs {
		b.WriteString(line)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Your balance is $%s.", res.Balance)
	writeDebts(&b, res.RemainingDebts, nil)
	return b.String()
}

func formatWithdraw(res bank.WithdrawResult) string {
	return fmt.Sprintf("Your balance is $%s.", res.Balance)
}

func formatTransfer(res settlement.TransferResult) string {
	out := fmt.Sprintf("Transferred $%s to %s.\nYour balance is $%s.",
		res.CashTransferred, res.ReceiverName, res.SenderNewBalance)
	if res.DebtCreated.IsPositive() {
		out += fmt.Sprintf("\nOwed $%s to %s", res.DebtCreated, res.ReceiverName)
	}
	return out
}

func formatLogout(name string) string {
	return fmt.Sprintf("Goodbye %s!", name)
}

func formatError(err error) string {
	return "Error: " + err.Error()
}

func writeDebts(b *strings.Builder, owed, owedFrom []*ledger.Debt) {
	for _, d := range owed {
		fmt.Fprintf(b, "\nOwed $%s to %s", d.Amount, d.CreditorName)
	}
	for _, d := range owedFrom {
		fmt.Fprintf(b, "\nOwed $%s from %s", d.Amount, d.DebtorName)
	}
}
