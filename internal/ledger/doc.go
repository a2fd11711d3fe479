// Package ledger persists which catalog items have already been announced.
//
// The ledger is a grow-only set keyed by item identifier with the UTC
// calendar date (2006-01-02) of the announcement. Backends create their
// table lazily on first use, so Has is safe against a fresh database. The
// table carries a generated row id and no uniqueness constraint: the
// pipeline never inserts an item it has not first checked with Has, and a
// duplicate row would not change the answer Has gives.
//
// Two backends exist: SQLite via modernc.org/sqlite (default, single file)
// and Postgres via pgx for shared deployments.
package ledger
