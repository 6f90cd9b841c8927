// Package app assembles the bank service from configuration for the server
// and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/laulowcode/atm-cli/internal/bank"
	"github.com/laulowcode/atm-cli/internal/ledger"
	"github.com/laulowcode/atm-cli/internal/platform/config"
	"github.com/laulowcode/atm-cli/internal/platform/lock"
	"github.com/laulowcode/atm-cli/internal/session"
	"github.com/laulowcode/atm-cli/internal/settlement"
	"github.com/laulowcode/atm-cli/internal/storage/memory"
	"github.com/laulowcode/atm-cli/internal/storage/postgres"
	"github.com/laulowcode/atm-cli/internal/storage/sqlite"
)

// Stores are the ledger stores selected by ATM_STORE.
type Stores struct {
	Accounts ledger.AccountStore
	Debts    ledger.DebtStore
	Close    func() error
}

func OpenStores(ctx context.Context, cfg config.Config) (Stores, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return Stores{}, err
		}
		return Stores{Accounts: store.Accounts(), Debts: store.Debts(), Close: store.Close}, nil
	case config.StorePostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return Stores{}, err
		}
		return Stores{
			Accounts: store.Accounts(),
			Debts:    store.Debts(),
			Close:    func() error { store.Close(); return nil },
		}, nil
	case config.StoreMemory:
		return Stores{
			Accounts: memory.NewAccountStore(),
			Debts:    memory.NewDebtStore(),
			Close:    func() error { return nil },
		}, nil
	}
	return Stores{}, fmt.Errorf("unknown store %q", cfg.Store)
}

// NewLocker returns the settlement lock and a function releasing its
// resources.
func NewLocker(cfg config.Config, logger *zap.Logger) (lock.Locker, func() error) {
	if cfg.Lock == config.LockRedis {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return lock.NewRedis(client, lock.DefaultRedisOptions(), logger.Named("lock")), client.Close
	}
	return lock.NewLocal(), func() error { return nil }
}

// NewService wires stores, lock and debt strategy into a bank service.
func NewService(cfg config.Config, stores Stores, locker lock.Locker, sessions *session.Manager, logger *zap.Logger) (*bank.Service, error) {
	strategy, err := settlement.StrategyByName(cfg.DebtStrategy)
	if err != nil {
		return nil, err
	}
	return bank.New(stores.Accounts, stores.Debts, sessions,
		bank.WithLocker(locker),
		bank.WithLogger(logger),
		bank.WithStrategy(strategy),
	), nil
}
