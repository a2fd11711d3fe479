// Package scheduler drives announcement passes on a fixed interval.
//
// The scheduler is a two-state machine, Idle and Running. A pass may only
// start from Idle; a tick that arrives while a pass is still running is a
// no-op. When configured, one pass runs immediately on Start before the
// ticker takes over. Each pass gets a correlation id, and a failing or
// panicking pass is logged and alerted but never stops the loop.
package scheduler
