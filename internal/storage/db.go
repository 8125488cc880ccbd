package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campbellco/wolfden/internal/filex"
	"github.com/campbellco/wolfden/internal/storage/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the embedded migrations to db, bringing the kv
// schema up to date. Safe to call on every startup.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the local SQLite database at dsn, migrates it, and
// returns the handle together with the durable store bound to it. The caller
// owns closing the DB.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, *SQLiteStore, error) {
	if _, err := filex.EnsureParentDir(dsn); err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return db, NewSQLiteStore(db), nil
}
