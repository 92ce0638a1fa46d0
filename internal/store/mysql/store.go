// Package mysql implements the users store on MySQL through database/sql and
// go-sql-driver/mysql. It has no products table.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/JonMunkholm/crudimport/internal/config"
	"github.com/JonMunkholm/crudimport/internal/core"
	"github.com/JonMunkholm/crudimport/internal/store"
)

func init() {
	store.Register(store.Backend{Name: config.BackendMySQL, Open: open})
}

func open(ctx context.Context, cfg config.StoreConfig) (core.UserStore, error) {
	return Open(ctx, cfg)
}

// Store is a users table reached through a *sql.DB.
type Store struct {
	db    *sql.DB
	table string // quoted
}

// Open connects with cfg.URL in the driver's DSN format
// (user:pass@tcp(host:3306)/dbname) and verifies the connection.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	dsn, err := normalizeDSN(cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(max(cfg.MinConns, 2))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return New(db, cfg.UsersTable), nil
}

// New wraps an open *sql.DB.
func New(db *sql.DB, usersTable string) *Store {
	return &Store{db: db, table: quoteIdent(usersTable)}
}

// normalizeDSN parses a driver DSN and turns on parseTime so DATETIME and
// TIMESTAMP columns scan into time.Time.
func normalizeDSN(raw string) (string, error) {
	c, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("parse database URL: %w", err)
	}
	c.ParseTime = true
	// InsertUsers sends one multi-row statement per upload; server-side
	// prepares cap placeholders at 65535, so arguments are bound client-side.
	c.InterpolateParams = true
	return c.FormatDSN(), nil
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying *sql.DB.
func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, core.ErrInvalidID
	}
	return n, nil
}
