// Package pairstore owns the flat photo library directory: persisting the
// original and themed halves of a capture, reconstructing valid pairs from
// loose files, and deriving usage statistics. The directory is shared with
// external writers and the eviction policy without locking; discovery treats
// a partial or missing file as "not yet a valid pair" rather than an error.
package pairstore
