// Package logging configures slog output for the pipeline and provides typed
// attribute helpers plus standardized field keys so every component logs
// episode and run identifiers the same way.
package logging
