package ledger_test

import (
	"context"
	"os"
	"testing"
	"time"

	"releasewatch/internal/catalog"
	"releasewatch/internal/ledger"
)

func TestPostgresRecordAndHas(t *testing.T) {
	dsn := os.Getenv("RELEASEWATCH_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("RELEASEWATCH_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := ledger.OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres returned error: %v", err)
	}
	defer store.Close()

	id := catalog.ItemID(time.Now().UnixNano() % 1_000_000_000)
	if has, err := store.Has(ctx, id); err != nil || has {
		t.Fatalf("Has before record returned %v, %v", has, err)
	}
	if ok, err := store.Record(ctx, id, time.Now()); !ok || err != nil {
		t.Fatalf("Record returned %v, %v", ok, err)
	}
	if has, err := store.Has(ctx, id); err != nil || !has {
		t.Fatalf("Has after record returned %v, %v", has, err)
	}
	if count, err := store.Count(ctx); err != nil || count < 1 {
		t.Fatalf("Count returned %d, %v", count, err)
	}
}

func TestOpenPostgresRejectsEmptyDSN(t *testing.T) {
	if _, err := ledger.OpenPostgres(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}
