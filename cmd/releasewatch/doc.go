// Command releasewatch runs and inspects the release announcement daemon.
//
// "releasewatch run" keeps the daemon in the foreground; "once" executes a
// single pass and "preview" renders one item without sending it. The ledger,
// config, doctor, status, and test-notify commands operate on the same
// configuration file without needing a running daemon.
package main
