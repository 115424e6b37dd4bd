// Package logging wires log/slog with the handlers and attribute helpers the
// rest of subforge logs through: a console handler for interactive runs, a
// JSON handler for log files, component loggers, and a no-op logger for tests.
package logging
