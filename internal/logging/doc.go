// Package logging constructs the slog loggers used across favsync.
//
// Two output formats are supported: a compact console format for interactive
// use and line-delimited JSON for log collectors. Attr helpers mirror the
// slog constructors so call sites stay terse.
package logging
