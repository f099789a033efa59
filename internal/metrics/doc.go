// Package metrics records per-run quality, coverage, and cost facts for
// each processed episode.
package metrics
