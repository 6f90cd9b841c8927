package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/laulowcode/atm-cli/internal/bank"
	"github.com/laulowcode/atm-cli/internal/session"
)

const prompt = "$ "

// CLI holds the one session of an interactive terminal.
type CLI struct {
	bank      *bank.Service
	sessionID string
}

func New(svc *bank.Service) *CLI {
	return &CLI{bank: svc}
}

// Handle runs one prompt line and returns what to print. exit is true once the
// user asked to leave.
func (c *CLI) Handle(ctx context.Context, line string) (output string, exit bool) {
	cmd, parseErr := Parse(line)

	// Every command but login needs a session before its arguments matter.
	switch commandName(line) {
	case "":
		return "", false
	case CmdExit:
		return "", true
	case CmdLogin:
		if parseErr != nil {
			return formatError(parseErr), false
		}
		return c.login(ctx, cmd.Target), false
	}

	name, err := c.bank.Current(c.sessionID)
	if err != nil {
		return formatError(session.ErrNotLoggedIn), false
	}
	if parseErr != nil {
		return formatError(parseErr), false
	}

	switch cmd.Name {
	case CmdLogout:
		if _, err := c.bank.Logout(ctx, c.sessionID); err != nil {
			return formatError(err), false
		}
		c.sessionID = ""
		return formatLogout(name), false
	case CmdDeposit:
		res, err := c.bank.Deposit(ctx, name, cmd.Amount)
		if err != nil {
			return formatError(err), false
		}
		return formatDeposit(res), false
	case CmdWithdraw:
		res, err := c.bank.Withdraw(ctx, name, cmd.Amount)
		if err != nil {
			return formatError(err), false
		}
		return formatWithdraw(res), false
	case CmdTransfer:
		res, err := c.bank.Transfer(ctx, name, cmd.Target, cmd.Amount)
		if err != nil {
			return formatError(err), false
		}
		return formatTransfer(res), false
	}
	return formatError(fmt.Errorf("invalid command: %s", cmd.Name)), false
}

func commandName(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// login replaces any current session.
func (c *CLI) login(ctx context.Context, name string) string {
	res, err := c.bank.Login(ctx, name)
	if err != nil {
		return formatError(err)
	}
	if c.sessionID != "" {
		_, _ = c.bank.Logout(ctx, c.sessionID)
	}
	c.sessionID = res.SessionID
	return formatLogin(res)
}

// Run reads commands from in until exit or EOF.
func (c *CLI) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, prompt)
	for scanner.Scan() {
		output, exit := c.Handle(ctx, scanner.Text())
		if exit {
			break
		}
		if output != "" {
			fmt.Fprintln(out, output)
		}
		fmt.Fprint(out, prompt)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintln(out, "Goodbye!")
	return nil
}
