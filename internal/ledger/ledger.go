package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"releasewatch/internal/catalog"
	"releasewatch/internal/config"
	"releasewatch/internal/services"
)

// DateLayout is the persisted announcement date format.
const DateLayout = "2006-01-02"

const tableName = "announced_items"

// Entry is one persisted announcement.
type Entry struct {
	RowID       int64
	ItemID      catalog.ItemID
	AnnouncedOn string
}

// Ledger is the announced-item store consumed by the pipeline.
type Ledger interface {
	// Has reports whether id has been recorded.
	Has(ctx context.Context, id catalog.ItemID) (bool, error)
	// Record inserts id with the announcement date. The boolean is true only
	// when the backend acknowledged the insert with a generated row id; the
	// error explains a false result and is meant for logging.
	Record(ctx context.Context, id catalog.ItemID, on time.Time) (bool, error)
	// List returns the most recent entries first. A non-positive limit
	// returns every entry.
	List(ctx context.Context, limit int) ([]Entry, error)
	// Count returns the number of persisted entries.
	Count(ctx context.Context) (int64, error)
	Close() error
}

// FormatDate renders t in the persisted announcement date format.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Open builds the ledger selected by configuration.
func Open(ctx context.Context, cfg *config.Config) (Ledger, error) {
	switch cfg.Ledger.Driver {
	case config.LedgerDriverSQLite, "":
		return OpenSQLite(cfg.Ledger.Path)
	case config.LedgerDriverPostgres:
		return OpenPostgres(ctx, cfg.Ledger.DSN)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "ledger", "open",
			fmt.Sprintf("unsupported driver %q", cfg.Ledger.Driver), nil)
	}
}

// schemaGuard runs table creation at most once successfully. A failed
// attempt is retried on the next call, which sync.Once cannot express.
type schemaGuard struct {
	mu    sync.Mutex
	ready bool
}

func (g *schemaGuard) ensure(ctx context.Context, create func(context.Context) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ready {
		return nil
	}
	if err := create(ctx); err != nil {
		return services.Wrap(services.ErrStorage, "ledger", "create table", "", err)
	}
	g.ready = true
	return nil
}

func storageError(operation string, err error) error {
	return services.Wrap(services.ErrStorage, "ledger", operation, "", err)
}

var (
	_ Ledger = (*SQLite)(nil)
	_ Ledger = (*Postgres)(nil)
)
