// Package services defines shared utilities consumed by the pipeline and its
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp pass IDs, catalog item IDs, and step names
//     for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into the fetch/metadata/send/ledger taxonomy reported in logs.
package services
