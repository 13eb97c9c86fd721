// Package retention evicts old content from the photo library. A pair is
// condemned when it is past the age limit or falls beyond the pair count
// cap; orphaned halves are only removed by age. Eviction is oldest first
// and removal failures are reported, never fatal.
package retention
