package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/expensemate/internal/config"
	"github.com/mmynk/expensemate/internal/currency"
	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
	"github.com/mmynk/expensemate/internal/storage/postgres"
	"github.com/mmynk/expensemate/internal/storage/sqlite"
	"github.com/mmynk/expensemate/internal/sweeper"
	"github.com/mmynk/expensemate/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	cfg, err := config.Load(getEnv("CONFIG_PATH", ""))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to initialize storage", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.Database.Driver)

	if err := seedRates(ctx, store, cfg.Currency.SeedRates); err != nil {
		logger.Error("Failed to seed exchange rates", "error", err)
		os.Exit(1)
	}

	app := newApp(cfg, store, logger)
	defer app.hub.Close()

	go sweeper.Run(ctx, app.invitations, cfg.Invitations.SweepInterval, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           h2c.NewHandler(app.router, &http2.Server{}),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Connect server starting", "address", srv.Addr, "base_url", cfg.Server.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	logger.Info("Server exited")
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (storage.Store, error) {
	if cfg.Driver == "postgres" {
		return postgres.New(ctx, cfg.DSN)
	}
	return sqlite.New(cfg.Path)
}

// seedRates appends the configured rates, dated now.
func seedRates(ctx context.Context, store storage.ExchangeRateStore, seed map[string]float64) error {
	if len(seed) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rates := make([]models.ExchangeRate, 0, len(seed))
	for code, rate := range seed {
		rates = append(rates, models.ExchangeRate{Currency: currency.Normalize(code), Rate: rate, Date: now})
	}
	return store.AddExchangeRates(ctx, rates)
}
