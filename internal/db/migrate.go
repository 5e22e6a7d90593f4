package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrationLockID keys the advisory lock held while a migration applies, so
// two servers starting against one database do not race.
const migrationLockID int64 = 0x6c656467

// RunMigrations applies every embedded migration not yet recorded in
// schema_migrations, each in its own transaction.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	known, err := migrationVersions()
	if err != nil {
		return err
	}
	rows, err := pool.Query(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("scan applied migrations: %w", err)
	}

	pending := pendingMigrations(known, applied)
	for _, version := range pending {
		if err := applyMigration(ctx, pool, version); err != nil {
			return err
		}
		log.Info().Str("version", version).Msg("migration applied")
	}
	log.Debug().Int("applied", len(pending)).Int("known", len(known)).Msg("migrations up to date")
	return nil
}

// pendingMigrations returns the known versions missing from applied, in
// file-name order.
func pendingMigrations(known, applied []string) []string {
	var out []string
	for _, version := range known {
		if !slices.Contains(applied, version) {
			out = append(out, version)
		}
	}
	return out
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, version string) error {
	body, err := migrationFiles.ReadFile(path.Join("migrations", version))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", version, err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration tx %s: %w", version, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("lock migration %s: %w", version, err)
	}
	// Another runner may have applied it while we waited for the lock.
	tag, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations(version) VALUES($1) ON CONFLICT (version) DO NOTHING",
		version,
	)
	if err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, string(body)); err != nil {
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}

func migrationVersions() ([]string, error) {
	versions, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	for i, name := range versions {
		versions[i] = path.Base(name)
	}
	slices.Sort(versions)
	return versions, nil
}
