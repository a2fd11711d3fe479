// Package daemon coordinates the long-running releasewatch process.
//
// It wires configuration, the ledger, and the pass scheduler into a single
// lifecycle with flock-based locking to prevent multiple instances from
// announcing the same items. Keep orchestration here: pass logic lives in
// internal/pipeline and timing in internal/scheduler.
package daemon
