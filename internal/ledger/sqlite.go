package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"releasewatch/internal/catalog"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLite is the file-backed ledger.
type SQLite struct {
	db     *sql.DB
	path   string
	schema schemaGuard
}

// OpenSQLite opens (creating if needed) the ledger database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	return &SQLite{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) createTable(ctx context.Context) error {
	return retryOnBusy(ctx, func() error {
		if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+tableName+` (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			app_id INTEGER NOT NULL,
			announced_on TEXT NOT NULL
		)`); err != nil {
			return err
		}
		_, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_`+tableName+`_app_id ON `+tableName+` (app_id)`)
		return err
	})
}

// Has reports whether id has been recorded.
func (s *SQLite) Has(ctx context.Context, id catalog.ItemID) (bool, error) {
	ctx = ensureContext(ctx)
	if err := s.schema.ensure(ctx, s.createTable); err != nil {
		return false, err
	}
	var one int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT 1 FROM `+tableName+` WHERE app_id = ? LIMIT 1`, int64(id)).Scan(&one)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageError("has", err)
	}
	return true, nil
}

// Record inserts id with the announcement date.
func (s *SQLite) Record(ctx context.Context, id catalog.ItemID, on time.Time) (bool, error) {
	ctx = ensureContext(ctx)
	if err := s.schema.ensure(ctx, s.createTable); err != nil {
		return false, err
	}
	res, err := s.execWithRetry(ctx, `INSERT INTO `+tableName+` (app_id, announced_on) VALUES (?, ?)`, int64(id), FormatDate(on))
	if err != nil {
		return false, storageError("record", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return false, storageError("record", err)
	}
	if rowID <= 0 {
		return false, storageError("record", errors.New("insert returned no row id"))
	}
	return true, nil
}

// List returns the most recent entries first.
func (s *SQLite) List(ctx context.Context, limit int) ([]Entry, error) {
	ctx = ensureContext(ctx)
	if err := s.schema.ensure(ctx, s.createTable); err != nil {
		return nil, err
	}
	query := `SELECT id, app_id, announced_on FROM ` + tableName + ` ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("list", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry  Entry
			itemID int64
		)
		if err := rows.Scan(&entry.RowID, &itemID, &entry.AnnouncedOn); err != nil {
			return nil, storageError("list", err)
		}
		entry.ItemID = catalog.ItemID(itemID)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list", err)
	}
	return entries, nil
}

// Count returns the number of persisted entries.
func (s *SQLite) Count(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	if err := s.schema.ensure(ctx, s.createTable); err != nil {
		return 0, err
	}
	var count int64
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+tableName).Scan(&count)
	})
	if err != nil {
		return 0, storageError("count", err)
	}
	return count, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := range busyRetryAttempts {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
