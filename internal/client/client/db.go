package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cashtrack/internal/client/migrations"
	"github.com/dmitrijs2005/cashtrack/internal/dbx"
)

// InitDatabase opens the local SQLite database at dsn and brings its schema
// up to date.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := dbx.OpenSQLite(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}
	return db, nil
}
