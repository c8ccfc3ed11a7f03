// Package repository archives batch runs for later reconciliation queries.
// Postgres (pgx) when a DSN is configured, local SQLite otherwise.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN             string // Postgres DSN; empty -> SQLite
	SQLitePath      string // file path or file::memory:?cache=shared
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store wraps the database handle plus the pgx pool when Postgres is in use.
type Store struct {
	db      *sql.DB
	pool    *pgxpool.Pool
	dialect dialect
	logger  *slog.Logger
}

// Open connects and runs the schema migration.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{logger: logger}
	if cfg.DSN != "" {
		logger.Info("connecting to database", "dsn", cfg.DSN)
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		pc.MaxConns = cfg.MaxConns
		pc.MinConns = cfg.MinConns
		pc.MaxConnLifetime = cfg.MaxConnLifetime
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
		pc.ConnConfig.RuntimeParams["application_name"] = "autofacture-extractor"

		dialCtx := ctx
		if cfg.DialTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
			defer cancel()
		}
		pool, err := pgxpool.NewWithConfig(dialCtx, pc)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		s.pool = pool
		s.db = stdlib.OpenDBFromPool(pool)
		s.dialect = dialectPostgres
	} else {
		path := cfg.SQLitePath
		if path == "" {
			path = "file::memory:?cache=shared"
		}
		logger.Info("opening sqlite archive", "path", path)
		db, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// the shared in-memory database disappears with its last connection
		db.SetMaxOpenConns(1)
		s.db = db
		s.dialect = dialectSQLite
	}

	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	logger.Info("archive store ready")
	return s, nil
}

// Close closes the database connections gracefully
func (s *Store) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close db", "error", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// HealthCheck pings the store to catch DSN issues early.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.db.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(q string) string {
	if s.dialect != dialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		total INTEGER NOT NULL,
		complete INTEGER NOT NULL,
		partial INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		batch_id TEXT NOT NULL,
		doc_seq INTEGER NOT NULL,
		document_id TEXT NOT NULL,
		invoice_number TEXT,
		order_number TEXT,
		invoice_date TEXT,
		due_date TEXT,
		recipient TEXT,
		vendor_batch_id TEXT,
		assignment_id TEXT,
		net_amount TEXT,
		vat_amount TEXT,
		gross_amount TEXT,
		status TEXT NOT NULL,
		missing_fields TEXT,
		diagnostic TEXT,
		PRIMARY KEY (batch_id, doc_seq)
	)`,
	`CREATE TABLE IF NOT EXISTS line_items (
		batch_id TEXT NOT NULL,
		invoice_number TEXT NOT NULL,
		seq INTEGER NOT NULL,
		description TEXT NOT NULL,
		period_start TEXT,
		period_end TEXT,
		unit TEXT,
		unit_price TEXT,
		quantity INTEGER,
		amount TEXT,
		PRIMARY KEY (batch_id, invoice_number, seq)
	)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
