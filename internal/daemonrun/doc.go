// Package daemonrun assembles and runs the strobe daemon process: logging,
// single-instance locking, the settings store, the booth coordinator, and
// the API server, torn down together on SIGINT/SIGTERM.
package daemonrun
