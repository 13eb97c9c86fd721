// Package logging builds the slog loggers used across strobe: a pretty
// console handler for interactive use, a JSON handler for files, shared
// attribute helpers, and age-based log file retention.
package logging
