// Package notifications sends operator alerts through ntfy.
//
// Alerts are reserved for whole-pass failures, such as an unreachable
// catalog or a pass that panicked, so an operator notices when announcements
// silently stop. Per-item failures only reach the logs. Without a configured
// topic, NewService returns a noop implementation.
package notifications
