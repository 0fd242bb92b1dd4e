// Package logging assembles the slog loggers used by mkvauto.
//
// It owns the console and JSON handlers, wires rotating file output, and
// exposes the standard field keys so every component emits warnings and
// decisions in the same shape. A no-op logger is available for tests and
// wiring code that cannot fail.
package logging
