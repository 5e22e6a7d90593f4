package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"billing/internal/config"
	"billing/internal/db"
	httpapi "billing/internal/http"
	"billing/internal/ledger"
	"billing/internal/logging"
	"billing/internal/repository"
	"billing/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	logger, err := logging.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("logging error")
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.Store).Msg("store error")
	}
	defer closeStore()

	l, err := ledger.Open(ctx, store,
		ledger.WithLogger(logger.With().Str("component", "ledger").Logger()),
		ledger.WithDefaults(cfg.Defaults),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("ledger load error")
	}

	svc := service.New(l)
	handler := httpapi.NewHandler(svc, logger.With().Str("component", "http").Logger())
	router := httpapi.NewRouter(handler)

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Str("store", cfg.Store).Msg("billing server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if closeErr := server.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("force close failed")
		}
	}
}

// openStore builds the ledger store named by cfg.Store. The returned func
// releases whatever the store holds open.
func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (ledger.Store, func(), error) {
	if cfg.Store != config.StorePostgres {
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return repository.New(repository.NewMemoryBlobs()), func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: int32(cfg.DBMaxConns)})
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.New(repository.NewPostgresBlobs(pool)), pool.Close, nil
}
