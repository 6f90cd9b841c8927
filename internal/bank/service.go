// Package bank exposes the ATM operations used by the REST server and the CLI.
package bank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/laulowcode/atm-cli/internal/ledger"
	"github.com/laulowcode/atm-cli/internal/platform/lock"
	"github.com/laulowcode/atm-cli/internal/platform/logging"
	tracing "github.com/laulowcode/atm-cli/internal/platform/otel"
	"github.com/laulowcode/atm-cli/internal/session"
	"github.com/laulowcode/atm-cli/internal/settlement"
)

// AccountSummary is an account with its debts in both directions.
type AccountSummary struct {
	Name    string
	Balance decimal.Decimal
	// DebtsOwed are debts where the account is the debtor.
	DebtsOwed []*ledger.Debt
	// DebtsOwedFromOthers are debts where the account is the creditor.
	DebtsOwedFromOthers []*ledger.Debt
}

type LoginResult struct {
	SessionID string
	AccountSummary
}

type WithdrawResult struct {
	Name    string
	Balance decimal.Decimal
}

// Service runs every mutating operation under lock.SettlementKey.
type Service struct {
	accounts ledger.AccountStore
	debts    ledger.DebtStore
	sessions *session.Manager

	locker   lock.Locker
	logger   *zap.Logger
	tracer   trace.Tracer
	strategy settlement.Strategy
	now      func() time.Time

	deposit  *settlement.Deposit
	transfer *settlement.Transfer
}

func New(accounts ledger.AccountStore, debts ledger.DebtStore, sessions *session.Manager, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		debts:    debts,
		sessions: sessions,
		locker:   lock.NewLocal(),
		logger:   zap.NewNop(),
		tracer:   tracing.Tracer(),
		strategy: settlement.OldestFirst{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = session.NewManager()
	}

	settleOpts := []settlement.Option{
		settlement.WithStrategy(s.strategy),
		settlement.WithClock(s.now),
		settlement.WithLogger(s.logger.Named("settlement")),
	}
	s.deposit = settlement.NewDeposit(accounts, debts, settleOpts...)
	s.transfer = settlement.NewTransfer(accounts, debts, settleOpts...)
	return s
}

// Login opens a session for name, creating the account with a zero balance
// on first login.
func (s *Service) Login(ctx context.Context, name string) (res LoginResult, err error) {
	name = strings.TrimSpace(name)
	ctx, span := s.start(ctx, "Login", attribute.String("account", name))
	defer func() { s.finish(ctx, span, "login", err, zap.String("account", name)) }()

	if name == "" {
		return LoginResult{}, ledger.ErrInvalidName
	}

	err = s.locker.WithLock(ctx, lock.SettlementKey, func(ctx context.Context) error {
		_, err := s.accounts.FindByName(ctx, name)
		if errors.Is(err, ledger.ErrNotFound) {
			if err := s.accounts.Save(ctx, ledger.NewAccount(name)); err != nil {
				return fmt.Errorf("create account %s: %w", name, err)
			}
			s.logger.Info("account created", zap.String("account", name))
			return nil
		}
		if err != nil {
			return fmt.Errorf("find account %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return LoginResult{}, err
	}

	summary, err := s.summary(ctx, name)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{SessionID: s.sessions.Login(name), AccountSummary: summary}, nil
}

// Logout closes the session and returns the account name it belonged to.
func (s *Service) Logout(ctx context.Context, sessionID string) (name string, err error) {
	ctx, span := s.start(ctx, "Logout")
	defer func() { s.finish(ctx, span, "logout", err, zap.String("account", name)) }()

	return s.sessions.Logout(sessionID)
}

// Current returns the account name logged in under sessionID.
func (s *Service) Current(sessionID string) (string, error) {
	return s.sessions.Current(sessionID)
}

func (s *Service) Deposit(ctx context.Context, name string, amount decimal.Decimal) (res settlement.DepositResult, err error) {
	ctx, span := s.start(ctx, "Deposit", attribute.String("account", name), attribute.String("amount", amount.String()))
	defer func() {
		s.finish(ctx, span, "deposit", err,
			zap.String("account", name),
			zap.Stringer("amount", amount),
			zap.Int("payments", len(res.Logs)),
		)
	}()

	err = s.locker.WithLock(ctx, lock.SettlementKey, func(ctx context.Context) error {
		var err error
		res, err = s.deposit.Execute(ctx, name, amount)
		return err
	})
	return res, err
}

func (s *Service) Withdraw(ctx context.Context, name string, amount decimal.Decimal) (res WithdrawResult, err error) {
	ctx, span := s.start(ctx, "Withdraw", attribute.String("account", name), attribute.String("amount", amount.String()))
	defer func() {
		s.finish(ctx, span, "withdraw", err, zap.String("account", name), zap.Stringer("amount", amount))
	}()

	if !amount.IsPositive() {
		return WithdrawResult{}, ledger.ErrInvalidAmount
	}
	err = s.locker.WithLock(ctx, lock.SettlementKey, func(ctx context.Context) error {
		account, err := s.findAccount(ctx, name)
		if err != nil {
			return err
		}
		if !account.Withdraw(amount) {
			return ledger.ErrInsufficientBalance
		}
		if err := s.accounts.Save(ctx, account); err != nil {
			return fmt.Errorf("save account %s: %w", name, err)
		}
		res = WithdrawResult{Name: account.Name, Balance: account.Balance}
		return nil
	})
	return res, err
}

func (s *Service) Transfer(ctx context.Context, sender, receiver string, amount decimal.Decimal) (res settlement.TransferResult, err error) {
	ctx, span := s.start(ctx, "Transfer",
		attribute.String("sender", sender),
		attribute.String("receiver", receiver),
		attribute.String("amount", amount.String()),
	)
	defer func() {
		s.finish(ctx, span, "transfer", err,
			zap.String("sender", sender),
			zap.String("receiver", receiver),
			zap.Stringer("amount", amount),
		)
	}()

	err = s.locker.WithLock(ctx, lock.SettlementKey, func(ctx context.Context) error {
		var err error
		res, err = s.transfer.Execute(ctx, sender, receiver, amount)
		return err
	})
	return res, err
}

// Balance reports the account and its open debts.
func (s *Service) Balance(ctx context.Context, name string) (res AccountSummary, err error) {
	ctx, span := s.start(ctx, "Balance", attribute.String("account", name))
	defer func() { s.finish(ctx, span, "balance", err, zap.String("account", name)) }()

	return s.summary(ctx, name)
}

func (s *Service) Accounts(ctx context.Context) (accounts []*ledger.Account, err error) {
	ctx, span := s.start(ctx, "Accounts")
	defer func() { s.finish(ctx, span, "accounts", err, zap.Int("count", len(accounts))) }()

	accounts, err = s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (s *Service) summary(ctx context.Context, name string) (AccountSummary, error) {
	account, err := s.findAccount(ctx, name)
	if err != nil {
		return AccountSummary{}, err
	}
	owed, err := s.debts.FindDebtsByDebtor(ctx, name)
	if err != nil {
		return AccountSummary{}, fmt.Errorf("find debts of %s: %w", name, err)
	}
	owedFrom, err := s.debts.FindDebtsByCreditor(ctx, name)
	if err != nil {
		return AccountSummary{}, fmt.Errorf("find debts owed to %s: %w", name, err)
	}
	return AccountSummary{
		Name:                account.Name,
		Balance:             account.Balance,
		DebtsOwed:           owed,
		DebtsOwedFromOthers: owedFrom,
	}, nil
}

func (s *Service) findAccount(ctx context.Context, name string) (*ledger.Account, error) {
	account, err := s.accounts.FindByName(ctx, name)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, ledger.AccountNotFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", name, err)
	}
	return account, nil
}

func (s *Service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "bank."+op, trace.WithAttributes(attrs...))
}

// finish ends span and logs the outcome. Ledger errors are expected user
// mistakes and log at warn; anything else is an infrastructure failure.
func (s *Service) finish(ctx context.Context, span trace.Span, op string, err error, fields ...zap.Field) {
	defer span.End()
	logger := logging.WithTrace(ctx, s.logger).With(zap.String("op", op))

	if err == nil {
		span.SetStatus(codes.Ok, "")
		logger.Info("operation completed", fields...)
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if code := ledger.CodeOf(err); code != ledger.CodeUnknown {
		span.SetAttributes(attribute.String("error.code", string(code)))
		logger.Warn("operation rejected", append(fields, zap.String("code", string(code)), zap.Error(err))...)
		return
	}
	if errors.Is(err, session.ErrNotLoggedIn) {
		logger.Warn("operation rejected", append(fields, zap.Error(err))...)
		return
	}
	logger.Error("operation failed", append(fields, zap.Error(err))...)
}
