// Command coinserver runs a local coin service for development.
//
// Usage:
//
//	coinserver --addr :5123 --db coins.db --symbols BTC,ETH,ADA
//	coinserver --symbols BTC,ETH (in-memory)
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vadiminshakov/cointrack/internal/coinserver"
	"github.com/vadiminshakov/cointrack/internal/domain"
	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", ":5123", "listen address")
	dbPath := flag.String("db", "", "sqlite database path, empty keeps coins in memory")
	symbols := flag.String("symbols", "BTC,ETH", "comma separated symbols to enable")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	list := splitSymbols(*symbols)

	var store coinserver.Store
	if *dbPath != "" {
		sqlStore, err := coinserver.OpenSQLStore(*dbPath)
		if err != nil {
			log.Fatal(err)
		}
		defer sqlStore.Close()
		if err := sqlStore.SyncSymbols(ctx, list); err != nil {
			log.Fatal(err)
		}
		store = sqlStore
	} else {
		coins := make([]domain.Coin, 0, len(list))
		for _, s := range list {
			coins = append(coins, domain.Coin{Symbol: s, Enabled: true})
		}
		store = coinserver.NewMemoryStore(coins...)
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           coinserver.NewHandler(store, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("coin service listening", zap.String("addr", *addr), zap.Strings("symbols", list))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("coin service stopped", zap.Error(err))
	}
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if sym := domain.NormalizeSymbol(part); sym != "" {
			out = append(out, sym)
		}
	}
	return out
}
