package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"faturamento/internal/amqp"
	"faturamento/internal/backend"
	"faturamento/internal/cache"
	"faturamento/internal/cli"
	"faturamento/internal/config"
	"faturamento/internal/core"
	apphttp "faturamento/internal/http"
	applog "faturamento/internal/log"
	"faturamento/internal/services"
	"faturamento/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, applog.ComponentApp, "")

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", "error", err)
			}
		}
	}()

	var (
		amqpClient *amqp.Client
		notifier   services.ChangeNotifier
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect amqp: %w", err)
		}
		defer amqpClient.Close()
		notifier = amqpClient
	} else {
		logger.Info("AMQP disabled, change notifications stay in-process")
	}

	billing := services.NewBillingService(res.Backend, cli.BillingConfig(cfg, logger))
	defer billing.Close()

	items := services.NewItemService(res.Backend, notifier)
	if amqpClient == nil {
		// Without a broker the refresh happens right after the write.
		items.OnChange(func(ctx context.Context, ledger core.Ledger) {
			if _, err := billing.Refresh(ctx, ledger, time.Time{}); err != nil {
				logger.WarnContext(ctx, "Refresh after write failed", "ledger", ledger, "error", err)
			}
		})
	}

	memos := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	for _, m := range billing.Memos() {
		memos.Register(m)
	}
	memos.StartCleanup(cfg.Projection.MemoTTL)
	defer memos.Stop()

	var ready apphttp.Pinger
	if p, ok := res.Backend.(backend.Pinger); ok {
		ready = p
	}
	srv := apphttp.NewServer(apphttp.ServerConfig{
		Addr:    ":" + cfg.Port,
		Billing: billing,
		Items:   items,
		Ready:   ready,
		Logger:  logger,
	})

	refresher := worker.NewRefreshWorker(billing, cfg.RefreshInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting faturamento server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return refresher.Run(gctx)
	})
	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeItemsChanged(gctx, refresher.HandleItemsChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("consume items changed: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}
