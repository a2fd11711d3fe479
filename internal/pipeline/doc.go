// Package pipeline runs one announcement pass.
//
// A pass discovers candidate identifiers from the catalog listing, drops
// those the ledger already holds, enriches the survivors, filters and orders
// the released ones, and announces them one at a time with a fixed delay
// between sends. An item is recorded in the ledger only after its main
// message was delivered, so anything that failed is naturally retried by a
// later pass. Per-item faults never abort the pass; only a failed discovery
// does.
package pipeline
