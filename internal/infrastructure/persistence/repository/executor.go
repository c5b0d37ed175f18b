package repository

import (
	"context"
	"database/sql"

	dbsqlite "github.com/SpudMar/Lotus-PM-sub001/internal/infrastructure/persistence/sqlite"
)

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// getExecutor returns the transaction carried in the context, or the plain
// connection when no transaction is open
func getExecutor(ctx context.Context, db *sql.DB) executor {
	if tx := dbsqlite.TxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}
