// Package cli implements the interactive ATM prompt.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	CmdLogin    = "login"
	CmdLogout   = "logout"
	CmdDeposit  = "deposit"
	CmdWithdraw = "withdraw"
	CmdTransfer = "transfer"
	CmdExit     = "exit"
)

var (
	ErrNameRequired         = errors.New("name is required")
	ErrReceiverNameRequired = errors.New("receiver name is required")
	ErrInvalidAmount        = errors.New("invalid amount")
)

// Command is one parsed prompt line.
type Command struct {
	Name   string
	Target string // account name for login and transfer
	Amount decimal.Decimal
}

// Parse splits a prompt line into a command. Command names are case-insensitive;
// account names are kept as typed.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, nil
	}
	cmd := Command{Name: strings.ToLower(fields[0])}
	args := fields[1:]

	switch cmd.Name {
	case CmdLogin:
		if len(args) == 0 {
			return Command{}, ErrNameRequired
		}
		cmd.Target = args[0]
	case CmdDeposit, CmdWithdraw:
		amount, err := parseAmount(args, 0)
		if err != nil {
			return Command{}, err
		}
		cmd.Amount = amount
	case CmdTransfer:
		if len(args) == 0 {
			return Command{}, ErrReceiverNameRequired
		}
		cmd.Target = args[0]
		amount, err := parseAmount(args, 1)
		if err != nil {
			return Command{}, err
		}
		cmd.Amount = amount
	case CmdLogout, CmdExit:
	default:
		return Command{}, fmt.Errorf("invalid command: %s", cmd.Name)
	}
	return cmd, nil
}

func parseAmount(args []string, i int) (decimal.Decimal, error) {
	if len(args) <= i {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(args[i])
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}
