// Command cointrack shows the tracked coin list and lets the user enable or
// disable tracking per coin. Every toggle is saved on the coin service first.
//
// Usage:
//
//	cointrack --config config.yaml
//	cointrack --service http://localhost:5123 --ui tui
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/cointrack/config"
	"github.com/vadiminshakov/cointrack/internal/clients"
	"github.com/vadiminshakov/cointrack/internal/services/coinlist"
	"github.com/vadiminshakov/cointrack/internal/setup"
	"github.com/vadiminshakov/cointrack/internal/storage/toggles"
	"github.com/vadiminshakov/cointrack/internal/web"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	conf, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("cointrack stopped", zap.Error(err))
	}
}

func run(ctx context.Context, conf config.Config, logger *zap.Logger) error {
	client := clients.NewCoinServiceClient(conf.ServiceURL, clients.WithTimeout(conf.RequestTimeout))

	var opts []coinlist.Option
	var journal *toggles.Journal
	if conf.JournalDir != "" {
		var err error
		journal, err = toggles.Open(conf.JournalDir)
		if err != nil {
			return err
		}
		defer journal.Close()
		opts = append(opts, coinlist.WithRecorder(journal))
	}

	coins := coinlist.NewSynchronizer(client, logger.Named("coinlist"), opts...)

	if conf.UI == config.UITypeTUI {
		return setup.RunTUI(ctx, coins)
	}

	// a nil *toggles.Journal must not end up inside a non-nil interface
	var server *web.Server
	if journal != nil {
		server = web.NewServer(conf.ListenAddr, coins, journal, logger.Named("web"))
	} else {
		server = web.NewServer(conf.ListenAddr, coins, nil, logger.Named("web"))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res := coins.Initialize(gctx)
		if res.Failed() {
			logger.Warn("initial coin list load failed, use reload on the coins page", zap.Error(res.Err))
		}
		return nil
	})
	g.Go(func() error {
		return server.Start(gctx)
	})

	logger.Info("started", zap.String("service", conf.ServiceURL), zap.String("listen", conf.ListenAddr))
	return g.Wait()
}
