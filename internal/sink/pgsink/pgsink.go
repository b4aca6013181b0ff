// Package pgsink executes compiled searches against PostgreSQL.
//
// It reuses the sqlsink translation with "$n" placeholders and connects
// through the pgx stdlib adapter, so the rest of the module only ever sees
// database/sql.
package pgsink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"searchquery/internal/logging"
	"searchquery/internal/searchlang"
	"searchquery/internal/sink/sqlsink"
)

// Store executes compiled searches against a PostgreSQL database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Connect opens a PostgreSQL connection from a DSN and verifies it with a
// ping.
func Connect(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger = logging.Default(logger)
	return &Store{db: db, logger: logger.With("component", "pgsink")}, nil
}

// NewStore wraps an existing database handle.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	logger = logging.Default(logger)
	return &Store{db: db, logger: logger.With("component", "pgsink")}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Select runs a compiled search against a table and returns the matching
// rows as records keyed by column name.
func (s *Store) Select(ctx context.Context, table string, search *searchlang.Search) ([]searchlang.Record, error) {
	q, err := sqlsink.Translate(search, sqlsink.PlaceholderDollar)
	if err != nil {
		return nil, err
	}
	stmt, err := sqlsink.SelectSQL(table, q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, stmt, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	recs, err := sqlsink.ScanRecords(rows)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search executed",
		"table", table,
		"rows", len(recs),
		"elapsed", time.Since(start))
	return recs, nil
}
