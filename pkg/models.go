package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/laulowcode/atm-cli/internal/bank"
	"github.com/laulowcode/atm-cli/internal/ledger"
	"github.com/laulowcode/atm-cli/internal/settlement"
)

type LoginRequest struct {
	Name string `json:"name" validate:"required"`
}

// AmountRequest is the body of deposit and withdraw. Amount accepts a JSON
// number or a quoted decimal string.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type TransferRequest struct {
	ReceiverName string          `json:"receiverName" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
}

// Response is the envelope of every successful reply.
type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type Debt struct {
	DebtorName   string      `json:"debtorName"`
	CreditorName string      `json:"creditorName"`
	Amount       json.Number `json:"amount"`
}

type Account struct {
	Name    string      `json:"name"`
	Balance json.Number `json:"balance"`
}

type LoginData struct {
	Token               string      `json:"token"`
	Name                string      `json:"name"`
	Balance             json.Number `json:"balance"`
	DebtsOwed           []Debt      `json:"debtsOwed"`
	DebtsOwedFromOthers []Debt      `json:"debtsOwedFromOthers"`
}

type DepositData struct {
	Balance        json.Number `json:"balance"`
	Logs           []string    `json:"logs"`
	RemainingDebts []Debt      `json:"remainingDebts"`
}

type WithdrawData struct {
	Balance json.Number `json:"balance"`
}

type TransferData struct {
	Amount           json.Number `json:"amount"`
	SenderNewBalance json.Number `json:"senderNewBalance"`
	CashTransferred  json.Number `json:"cashTransferred"`
	DebtReduced      json.Number `json:"debtReduced"`
	DebtCreated      json.Number `json:"debtCreated"`
	ReceiverOwesBack json.Number `json:"receiverOwesBack"`
}

type BalanceData struct {
	Name                string      `json:"name"`
	Balance             json.Number `json:"balance"`
	DebtsOwed           []Debt      `json:"debtsOwed"`
	DebtsOwedFromOthers []Debt      `json:"debtsOwedFromOthers"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func toDebts(debts []*ledger.Debt) []Debt {
	out := make([]Debt, 0, len(debts))
	for _, d := range debts {
		out = append(out, Debt{DebtorName: d.DebtorName, CreditorName: d.CreditorName, Amount: number(d.Amount)})
	}
	return out
}

func toLoginData(token string, res bank.LoginResult) LoginData {
	return LoginData{
		Token:               token,
		Name:                res.Name,
		Balance:             number(res.Balance),
		DebtsOwed:           toDebts(res.DebtsOwed),
		DebtsOwedFromOthers: toDebts(res.DebtsOwedFromOthers),
	}
}

func toDepositData(res settlement.DepositResult) DepositData {
	logs := res.Logs
	if logs == nil {
		logs = []string{}
	}
	return DepositData{Balance: number(res.Balance), Logs: logs, RemainingDebts: toDebts(res.RemainingDebts)}
}

func toTransferData(res settlement.TransferResult) TransferData {
	return TransferData{
		Amount:           number(res.Amount),
		SenderNewBalance: number(res.SenderNewBalance),
		CashTransferred:  number(res.CashTransferred),
		DebtReduced:      number(res.DebtReduced),
		DebtCreated:      number(res.DebtCreated),
		ReceiverOwesBack: number(res.ReceiverOwesBack),
	}
}

func toBalanceData(s bank.AccountSummary) BalanceData {
	return BalanceData{
		Name:                s.Name,
		Balance:             number(s.Balance),
		DebtsOwed:           toDebts(s.DebtsOwed),
		DebtsOwedFromOthers: toDebts(s.DebtsOwedFromOthers),
	}
}

func toAccounts(accounts []*ledger.Account) []Account {
	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, Account{Name: a.Name, Balance: number(a.Balance)})
	}
	return out
}
