package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/caninosoft/vetcore/backend/pkg/config"
)

// Client represents an embedded SQLite database client. Small clinics run
// the whole ledger off a single file; tests use it for a real SQL backend
// without a server.
type Client struct {
	db *sql.DB
}

// NewClient opens (or creates) the SQLite database file. The busy timeout
// bounds writer contention so callers see a retryable error instead of
// blocking indefinitely.
func NewClient(cfg *config.DatabaseConfig) (*Client, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(3000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", cfg.SQLitePath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids spurious
	// SQLITE_BUSY from the pool itself.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", cfg.SQLitePath, err)
	}

	log.Printf("Successfully opened SQLite database at %s", cfg.SQLitePath)
	return &Client{db: db}, nil
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Dialect returns the goqu dialect name for this backend
func (c *Client) Dialect() string {
	return "sqlite3"
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// BeginTx starts a new transaction
func (c *Client) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}

// Ping verifies the connection to the database
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
