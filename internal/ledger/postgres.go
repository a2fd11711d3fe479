package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"releasewatch/internal/catalog"
)

const postgresPingTimeout = 5 * time.Second

// Postgres is the ledger backed by a shared Postgres database.
type Postgres struct {
	pool   *pgxpool.Pool
	schema schemaGuard
}

// OpenPostgres connects a pool to dsn and verifies it with a ping.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("ledger dsn is empty")
	}
	ctx = ensureContext(ctx)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, postgresPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewPostgres(pool), nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) createTable(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+tableName+` (
		id BIGSERIAL PRIMARY KEY,
		app_id BIGINT NOT NULL,
		announced_on TEXT NOT NULL
	)`); err != nil {
		return err
	}
	_, err := p.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_`+tableName+`_app_id ON `+tableName+` (app_id)`)
	return err
}

// Has reports whether id has been recorded.
func (p *Postgres) Has(ctx context.Context, id catalog.ItemID) (bool, error) {
	ctx = ensureContext(ctx)
	if err := p.schema.ensure(ctx, p.createTable); err != nil {
		return false, err
	}
	var one int
	err := p.pool.QueryRow(ctx, `SELECT 1 FROM `+tableName+` WHERE app_id = $1 LIMIT 1`, int64(id)).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageError("has", err)
	}
	return true, nil
}

// Record inserts id with the announcement date.
func (p *Postgres) Record(ctx context.Context, id catalog.ItemID, on time.Time) (bool, error) {
	ctx = ensureContext(ctx)
	if err := p.schema.ensure(ctx, p.createTable); err != nil {
		return false, err
	}
	var rowID int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO `+tableName+` (app_id, announced_on) VALUES ($1, $2) RETURNING id`,
		int64(id), FormatDate(on),
	).Scan(&rowID)
	if err != nil {
		return false, storageError("record", err)
	}
	return rowID > 0, nil
}

// List returns the most recent entries first.
func (p *Postgres) List(ctx context.Context, limit int) ([]Entry, error) {
	ctx = ensureContext(ctx)
	if err := p.schema.ensure(ctx, p.createTable); err != nil {
		return nil, err
	}
	query := `SELECT id, app_id, announced_on FROM ` + tableName + ` ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := p.pool.Query(ctx, query, args...)
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
func (p *Postgres) Count(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	if err := p.schema.ensure(ctx, p.createTable); err != nil {
		return 0, err
	}
	var count int64
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+tableName).Scan(&count); err != nil {
		return 0, storageError("count", err)
	}
	return count, nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	p.pool.Close()
	return nil
}
