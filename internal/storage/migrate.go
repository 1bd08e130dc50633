package storage

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// migrationLockID serializes migrations across instances starting at the same time
const migrationLockID = 724_001

type migration struct {
	name     string
	sql      string
	checksum string
}

// migrationsFS returns the directory to read migrations from; an empty dir selects the embedded set
func migrationsFS(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embeddedMigrations, "migrations")
	}
	return os.DirFS(dir), nil
}

// RunMigrations applies pending .sql migrations in name order, one transaction each.
// An applied migration whose file content has since changed is an error.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrationsDir string) error {
	fsys, err := migrationsFS(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	migrations, err := loadMigrations(fsys)
	if err != nil {
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrationLockID); err != nil {
		return fmt.Errorf("failed to take migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockID); err != nil {
			slog.Warn("failed to release migration lock", "error", err)
		}
	}()

	if _, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       VARCHAR(255) PRIMARY KEY,
			checksum   CHAR(64) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedChecksums(ctx, conn.Conn())
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	pending := 0
	for _, m := range migrations {
		if sum, ok := applied[m.name]; ok {
			if sum != m.checksum {
				return fmt.Errorf("migration %s was modified after it was applied", m.name)
			}
			continue
		}

		slog.Info("applying migration", "migration", m.name)

		err := pgx.BeginFunc(ctx, conn.Conn(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name, checksum) VALUES ($1, $2)`, m.name, m.checksum)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.name, err)
		}
		pending++
	}

	slog.Info("migrations complete", "applied", pending, "total", len(migrations))
	return nil
}

// listMigrations returns the .sql file names at the root of fsys in lexical order
func listMigrations(fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

func loadMigrations(fsys fs.FS) ([]migration, error) {
	names, err := listMigrations(fsys)
	if err != nil {
		return nil, err
	}

	migrations := make([]migration, 0, len(names))
	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		sum := sha256.Sum256(content)
		migrations = append(migrations, migration{
			name:     path.Base(name),
			sql:      string(content),
			checksum: hex.EncodeToString(sum[:]),
		})
	}
	return migrations, nil
}

// appliedChecksums maps applied migration names to their recorded checksum
func appliedChecksums(ctx context.Context, conn *pgx.Conn) (map[string]string, error) {
	rows, err := conn.Query(ctx, `SELECT name, checksum FROM schema_migrations`)
	if err != nil {
		return nil, err
	}

	applied := make(map[string]string)
	var name, checksum string
	_, err = pgx.ForEachRow(rows, []any{&name, &checksum}, func() error {
		applied[name] = checksum
		return nil
	})
	return applied, err
}

// MigrateFromDSN runs migrations against dsn without keeping the pool open
func MigrateFromDSN(ctx context.Context, dsn, migrationsDir string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	return RunMigrations(ctx, pool, migrationsDir)
}
