// Command scranton runs the paper-trading bot. It polls a price feed,
// maintains a simulated portfolio and serves a dashboard plus a JSON API.
//
// Usage:
//
//	scranton --config config.yaml
//	scranton --setup          (interactive configuration wizard)
//
// Optional environment variables (a .env file is honored):
//
//	COINBASE_API_KEY, PLATFORM, LISTEN_ADDR
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scrantonlabs/scranton/config"
	"github.com/scrantonlabs/scranton/internal"
	"github.com/scrantonlabs/scranton/internal/scheduler"
	"github.com/scrantonlabs/scranton/internal/setup"
	"github.com/scrantonlabs/scranton/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to yaml config")
	runSetup := flag.Bool("setup", false, "run the interactive configuration wizard and exit")
	flag.Parse()

	if *runSetup {
		if err := setup.Run(*configPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	conf, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	source := internal.NewMarketSource(conf, logger)
	bot, err := internal.NewBot(conf, source, logger)
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}

	server := web.NewServer(conf.ListenAddr, bot, bot, bot, logger)
	sched := scheduler.New(conf.PollInterval, bot, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(ctx) })
	g.Go(func() error { return sched.Run(ctx) })

	logger.Info("paper trading bot is active",
		zap.String("platform", conf.Platform),
		zap.String("listen", conf.ListenAddr),
		zap.Int("pairs", len(conf.Pairs)))

	if err := g.Wait(); err != nil && !isShutdown(err) {
		logger.Fatal("bot stopped", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled)
}
