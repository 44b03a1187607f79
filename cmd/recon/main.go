package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/obrafin/recon-go/internal/config"
	"github.com/obrafin/recon-go/internal/handler"
	"github.com/obrafin/recon-go/internal/infra/client"
	"github.com/obrafin/recon-go/internal/infra/memory"
	"github.com/obrafin/recon-go/internal/infra/observability"
	"github.com/obrafin/recon-go/internal/infra/resilience"
	"github.com/obrafin/recon-go/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("pix_ttl", cfg.PixTTL),
		zap.Duration("pix_sweep_interval", cfg.SweepTick),
		zap.String("value_tolerance", cfg.ValueTolerance.String()),
		zap.Int("date_tolerance_days", cfg.DateToleranceDays),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "recon-engine")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Stores ---
	accounts := memory.NewAccountStore()
	boletos := memory.NewBoletoStore()
	pixKeys := memory.NewPixKeyStore()
	pixCharges := memory.NewPixStore()
	batches := memory.NewCnabBatchStore()
	statements := memory.NewStatementStore()
	matches := memory.NewMatchStore()
	sequence := memory.NewSequence()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	notifier := client.NewNotifierClient(httpClient, cfg.NotifierURL, cb, resilienceCfg)
	deliverer := client.NewDeliveryClient(httpClient, cfg.BankDeliveryURL, cb, resilienceCfg)

	// --- Services ---
	rateDefaults := service.RateDefaults{
		PenaltyPct:         cfg.DefaultPenaltyPct,
		MonthlyInterestPct: cfg.DefaultInterestPct,
	}
	boletoSvc := service.NewBoletoService(accounts, boletos, sequence, notifier, rateDefaults, metrics, logger)
	pixSvc := service.NewPixService(pixKeys, pixCharges, notifier, cfg.PixISPB, cfg.PixTTL, metrics, logger)
	cnabSvc := service.NewCnabService(accounts, boletos, batches, sequence, deliverer, boletoSvc, metrics, logger)
	reconSvc := service.NewReconService(statements, matches, boletos, pixCharges, boletoSvc, pixSvc, cfg.ValueTolerance, cfg.DateToleranceDays, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(boletoSvc, pixSvc, cnabSvc, reconSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Background sweep: expire stale PIX charges.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SweepTick)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				expired, err := pixSvc.ExpireStale(gctx, now.UTC())
				if err != nil {
					logger.Error("pix expiry sweep failed", zap.Error(err))
				} else if len(expired) > 0 {
					logger.Info("pix expiry sweep", zap.Int("expired", len(expired)))
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
