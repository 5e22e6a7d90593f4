package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"billing/internal/config"
	"billing/internal/db"
	"billing/internal/domain"
	"billing/internal/ledger"
	"billing/internal/logging"
	"billing/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type options struct {
	dumpPath string
	dryRun   bool
	replace  bool
}

var errTargetNotEmpty = errors.New("target store already holds billing data (use -replace to overwrite)")

func main() {
	opts := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}
	logger, err := logging.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("logging error")
	}

	file, err := os.Open(opts.dumpPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open dump")
	}
	dump, err := readDump(file)
	file.Close()
	if err != nil {
		logger.Fatal().Err(err).Str("path", opts.dumpPath).Msg("read dump")
	}

	cs, summary, err := convertDump(dump, time.Now().UTC())
	if err != nil {
		logger.Fatal().Err(err).Msg("convert dump")
	}
	ctx := context.Background()
	if err := verifyChangeset(ctx, cs); err != nil {
		logger.Fatal().Err(err).Msg("converted data does not load")
	}
	logger.Info().
		Int("bills", summary.Bills).
		Int("inventory_items", summary.Items).
		Int("stock_transactions", summary.Transactions).
		Int("users", summary.Users).
		Bool("settings", summary.Settings).
		Msg("dump converted")
	if opts.dryRun {
		return
	}

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is required to import")
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: int32(cfg.DBMaxConns)})
	if err != nil {
		logger.Fatal().Err(err).Msg("database error")
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, logger); err != nil {
		logger.Fatal().Err(err).Msg("migration error")
	}

	repo := repository.New(repository.NewPostgresBlobs(pool))
	if err := importChangeset(ctx, repo, cs, opts.replace); err != nil {
		logger.Fatal().Err(err).Msg("import failed")
	}
	logger.Info().
		Int("bills", summary.Bills).
		Int("inventory_items", summary.Items).
		Int("stock_transactions", summary.Transactions).
		Int("users", summary.Users).
		Msg("legacy import complete")
}

func parseFlags() options {
	var opts options
	flag.StringVar(
		&opts.dumpPath,
		"dump",
		"",
		"path to a JSON export of the browser app's localStorage",
	)
	flag.BoolVar(
		&opts.dryRun,
		"dry-run",
		false,
		"convert and check the dump without writing to the database",
	)
	flag.BoolVar(
		&opts.replace,
		"replace",
		false,
		"overwrite billing data already in the database",
	)
	flag.Parse()
	if opts.dumpPath == "" {
		log.Fatal().Msg("missing -dump")
	}
	return opts
}

// verifyChangeset opens a ledger over an in-memory copy of cs so bad data is
// rejected before anything reaches the database.
func verifyChangeset(ctx context.Context, cs domain.Changeset) error {
	store := repository.New(repository.NewMemoryBlobs())
	if err := store.Commit(ctx, cs); err != nil {
		return err
	}
	_, err := ledger.Open(ctx, store, ledger.WithLogger(zerolog.Nop()))
	return err
}

// importChangeset writes cs in one commit. Unless replace is set it refuses
// a store that already holds bills, items, transactions or users beyond the
// seeded administrator. Importing users also ends any stored session.
func importChangeset(ctx context.Context, repo *repository.Repository, cs domain.Changeset, replace bool) error {
	if !replace {
		empty, err := storeEmpty(ctx, repo)
		if err != nil {
			return err
		}
		if !empty {
			return errTargetNotEmpty
		}
	}
	if cs.HasUsers() {
		cs.ClearSession()
	}
	if err := repo.Commit(ctx, cs); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func storeEmpty(ctx context.Context, repo *repository.Repository) (bool, error) {
	bills, err := repo.LoadBills(ctx)
	if err != nil {
		return false, err
	}
	items, err := repo.LoadInventory(ctx)
	if err != nil {
		return false, err
	}
	txs, err := repo.LoadTransactions(ctx)
	if err != nil {
		return false, err
	}
	users, _, err := repo.LoadUsers(ctx)
	if err != nil {
		return false, err
	}
	// The server seeds the default administrator on first start.
	seededOnly := len(users) == 0 || (len(users) == 1 && users[0].ID == domain.BootstrapUserID)
	return len(bills) == 0 && len(items) == 0 && len(txs) == 0 && seededOnly, nil
}
