// Package logs reads the daemon log for "releasewatch logs".
//
// Last returns the final lines of a file with bounded memory. Follow polls
// for appended lines and restarts from the top when the file is truncated or
// when the releasewatch.log pointer is moved to a new run's log.
package logs
