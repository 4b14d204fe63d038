// Package logging centralizes slog construction and the attribute
// vocabulary shared across docsmith subsystems. Handlers are selected by
// config (console for interactive runs, JSON for machine consumption) and
// every component logger carries a stable "component" attribute so run
// output can be filtered per subsystem.
package logging
