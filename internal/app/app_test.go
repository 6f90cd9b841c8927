package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/laulowcode/atm-cli/internal/platform/config"
	"github.com/laulowcode/atm-cli/internal/platform/lock"
	"github.com/laulowcode/atm-cli/internal/session"
)

func TestOpenStores(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, cfg := range []config.Config{
		{Store: config.StoreMemory},
		{Store: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "atm.db")},
	} {
		stores, err := OpenStores(ctx, cfg)
		require.NoError(t, err, cfg.Store)
		require.NotNil(t, stores.Accounts)
		require.NotNil(t, stores.Debts)
		assert.NoError(t, stores.Close())
	}

	_, err := OpenStores(ctx, config.Config{Store: "tape"})
	assert.Error(t, err)
}

func TestNewLocker(t *testing.T) {
	t.Parallel()

	local, closeLocal := NewLocker(config.Config{Lock: config.LockLocal}, zap.NewNop())
	assert.IsType(t, &lock.Local{}, local)
	assert.NoError(t, closeLocal())

	mr := miniredis.RunT(t)
	remote, closeRemote := NewLocker(config.Config{Lock: config.LockRedis, RedisAddr: mr.Addr()}, zap.NewNop())
	assert.IsType(t, &lock.Redis{}, remote)
	require.NoError(t, remote.WithLock(context.Background(), lock.SettlementKey, func(context.Context) error { return nil }))
	assert.NoError(t, closeRemote())
}

func TestNewServiceUsesConfiguredStrategy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	stores, err := OpenStores(ctx, config.Config{Store: config.StoreMemory})
	require.NoError(t, err)

	_, err = NewService(config.Config{DebtStrategy: "random"}, stores, lock.NewLocal(), session.NewManager(), zap.NewNop())
	assert.Error(t, err)

	svc, err := NewService(config.Config{DebtStrategy: "highest"}, stores, lock.NewLocal(), session.NewManager(), zap.NewNop())
	require.NoError(t, err)
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		_, err := svc.Login(ctx, name)
		require.NoError(t, err)
	}
	_, err = svc.Transfer(ctx, "Alice", "Bob", decimal.NewFromInt(5))
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, "Alice", "Carol", decimal.NewFromInt(25))
	require.NoError(t, err)

	res, err := svc.Deposit(ctx, "Alice", decimal.NewFromInt(25))
	require.NoError(t, err)
	assert.Equal(t, []string{"Transferred 25 to Carol"}, res.Logs)
}
