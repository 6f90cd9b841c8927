package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/laulowcode/atm-cli/internal/app"
	"github.com/laulowcode/atm-cli/internal/cli"
	"github.com/laulowcode/atm-cli/internal/platform/config"
	"github.com/laulowcode/atm-cli/internal/platform/logging"
	"github.com/laulowcode/atm-cli/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	logger, err := logging.New(logging.Config{Level: cfg.CLILogLevel, Format: "console"})
	if err != nil {
		config.Exitf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	stores, err := app.OpenStores(ctx, cfg)
	if err != nil {
		config.Exitf("open %s store: %v", cfg.Store, err)
	}
	defer func() { _ = stores.Close() }()

	locker, closeLocker := app.NewLocker(cfg, logger)
	defer func() { _ = closeLocker() }()

	svc, err := app.NewService(cfg, stores, locker, session.NewManager(), logger)
	if err != nil {
		config.Exitf("build service: %v", err)
	}

	if err := cli.New(svc).Run(ctx, os.Stdin, os.Stdout); err != nil {
		config.Exitf("%v", err)
	}
}
