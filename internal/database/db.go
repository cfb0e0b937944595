// Package database provides database connection management.
package database

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/at-ishikawa/codetutor/internal/config"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// DefaultRetryDelay is the initial delay between readiness pings. It doubles after each failed ping.
const DefaultRetryDelay = 500 * time.Millisecond

// Open opens a connection for the configured driver. It does not connect until first use.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	var dsn string
	switch cfg.Driver {
	case DriverMySQL:
		dsn = mysqlDSN(cfg)
	case DriverSQLite:
		dsn = cfg.Path
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlx.Open() > %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	return db, nil
}

func mysqlDSN(cfg config.DatabaseConfig) string {
	mysqlCfg := mysql.NewConfig()
	mysqlCfg.User = cfg.Username
	mysqlCfg.Passwd = cfg.Password
	mysqlCfg.Net = "tcp"
	mysqlCfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mysqlCfg.DBName = cfg.Database
	mysqlCfg.ParseTime = true
	mysqlCfg.MultiStatements = true
	if cfg.TLS {
		mysqlCfg.TLSConfig = "true"
	}
	if len(cfg.Params) > 0 {
		mysqlCfg.Params = cfg.Params
	}
	return mysqlCfg.FormatDSN()
}

// WaitReady pings the database until it answers, backing off between attempts.
func WaitReady(ctx context.Context, db *sqlx.DB, attempts uint, delay time.Duration) error {
	if err := retry.Do(
		func() error {
			return db.PingContext(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Default().Warn("database is not ready",
				slog.Uint64("attempt", uint64(n+1)),
				slog.Any("error", err),
			)
		}),
	); err != nil {
		return fmt.Errorf("db.PingContext() > %w", err)
	}
	return nil
}

// Migrate applies every migration under migrations/<driver>/ of migrations in file name order.
// Each file runs in its own transaction.
func Migrate(ctx context.Context, db *sqlx.DB, migrations fs.FS) error {
	dir := path.Join("migrations", db.DriverName())
	files, err := fs.Glob(migrations, path.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("fs.Glob(%s) > %w", dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found for driver %q", db.DriverName())
	}
	sort.Strings(files)

	for _, file := range files {
		contents, err := fs.ReadFile(migrations, file)
		if err != nil {
			return fmt.Errorf("fs.ReadFile(%s) > %w", file, err)
		}
		if err := RunInTx(ctx, db, func(ctx context.Context, tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, string(contents))
			return err
		}); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		slog.Default().Debug("applied migration", slog.String("file", file))
	}
	return nil
}

// RunInTx runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back; otherwise, it is committed.
func RunInTx(ctx context.Context, db *sqlx.DB, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
