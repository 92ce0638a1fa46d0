// Package postgres implements the users and products stores on PostgreSQL
// with pgx. The supabase backend is the same store reached through a
// Supabase connection string with TLS required.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/crudimport/internal/config"
	"github.com/JonMunkholm/crudimport/internal/core"
	"github.com/JonMunkholm/crudimport/internal/store"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

func init() {
	store.Register(store.Backend{Name: config.BackendPostgres, Open: open})
	store.Register(store.Backend{Name: config.BackendSupabase, Open: openSupabase})
}

func open(ctx context.Context, cfg config.StoreConfig) (core.UserStore, error) {
	return Open(ctx, cfg)
}

func openSupabase(ctx context.Context, cfg config.StoreConfig) (core.UserStore, error) {
	cfg.URL = withSSLMode(cfg.URL, "require")
	return Open(ctx, cfg)
}

// Store is a users and products store backed by a pgx pool.
type Store struct {
	db   DBTX
	pool *pgxpool.Pool // nil when built with New

	usersTable    pgx.Identifier
	productsTable pgx.Identifier
}

// Open creates a pool from cfg and verifies it with a ping.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := New(pool, cfg.UsersTable, cfg.ProductsTable)
	s.pool = pool
	return s, nil
}

// New wraps an existing connection, pool or transaction.
func New(db DBTX, usersTable, productsTable string) *Store {
	return &Store{
		db:            db,
		usersTable:    pgx.Identifier{usersTable},
		productsTable: pgx.Identifier{productsTable},
	}
}

// Ping checks the pool connection.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// Close closes the pool if Open created it.
func (s *Store) Close(context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// parseID converts a public id to the SERIAL primary key.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, core.ErrInvalidID
	}
	return n, nil
}

// withSSLMode sets sslmode on a connection string that does not carry one.
// Both URL and keyword/value forms are accepted.
func withSSLMode(dsn, mode string) string {
	if strings.Contains(dsn, "sslmode=") {
		return dsn
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		q.Set("sslmode", mode)
		u.RawQuery = q.Encode()
		return u.String()
	}

	return strings.TrimSpace(dsn) + " sslmode=" + mode
}
