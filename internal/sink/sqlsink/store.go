package sqlsink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"searchquery/internal/logging"
	"searchquery/internal/searchlang"
)

// Store executes compiled searches against a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens a SQLite database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal_mode: %w", err)
	}

	logger = logging.Default(logger)
	return &Store{db: db, logger: logger.With("component", "sqlsink")}, nil
}

// NewStore wraps an existing database handle. The caller keeps ownership of
// the handle; Close is a no-op path for it.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	logger = logging.Default(logger)
	return &Store{db: db, logger: logger.With("component", "sqlsink")}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Select runs a compiled search against a table and returns the matching
// rows as records keyed by column name.
func (s *Store) Select(ctx context.Context, table string, search *searchlang.Search) ([]searchlang.Record, error) {
	q, err := Translate(search, PlaceholderQuestion)
	if err != nil {
		return nil, err
	}
	stmt, err := SelectSQL(table, q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, stmt, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	recs, err := ScanRecords(rows)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search executed",
		"table", table,
		"rows", len(recs),
		"elapsed", time.Since(start))
	return recs, nil
}

// ScanRecords drains a result set into records keyed by column name. Byte
// slices are converted to strings so records compare and marshal cleanly.
func ScanRecords(rows *sql.Rows) ([]searchlang.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var recs []searchlang.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rec := make(searchlang.Record, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				rec[c] = string(b)
			} else {
				rec[c] = vals[i]
			}
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return recs, nil
}
