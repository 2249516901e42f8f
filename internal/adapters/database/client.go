package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

// Client is the connection surface the adapters need from a SQL backend.
// Both the PostgreSQL and the SQLite infrastructure clients satisfy it.
type Client interface {
	DB() *sql.DB
	Dialect() string
	BeginTx(ctx context.Context) (*sql.Tx, error)
}

// pq error code raised when lock_timeout expires before an advisory or row
// lock could be taken
const pqLockNotAvailable = "55P03"

// isBusyErr reports whether err is a bounded lock/transaction acquisition
// timeout on either backend. Callers map it to a retryable busy error.
func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqLockNotAvailable
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// rollback discards a transaction, ignoring the error from an already
// finished one.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
