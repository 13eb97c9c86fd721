// Package settings persists the small runtime-adjustable scalars (display
// durations, retention thresholds, last cleanup time) and the capture
// session audit trail in SQLite. The photo pairs themselves live only on
// disk; this store never references image data.
package settings
