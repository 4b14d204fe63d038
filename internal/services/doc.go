// Package services defines the error taxonomy shared by every docsmith
// subsystem. Components wrap failures with a sentinel marker so callers can
// classify outcomes (retryable, terminal, configuration) without inspecting
// message text.
package services
