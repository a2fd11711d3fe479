// Command releasewatchd is the bare daemon entry point for service managers.
// It is equivalent to "releasewatch run" without the CLI.
package main
