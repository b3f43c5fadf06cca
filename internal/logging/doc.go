// Package logging builds the slog loggers used across the transcriber.
//
// It provides a colored console handler for interactive use, a JSON handler
// for log files and machine consumption, and small attribute helpers so call
// sites stay terse. Loggers are always passed explicitly into component
// constructors; there is no package-level logger state.
package logging
