// Package workflow orchestrates episode processing: it claims queued
// episodes, fetches and verifies their transcripts, extracts and merges
// recommendations, enriches them against the book catalog, and records
// per-run metrics. The scheduler layers retry sweeps and polling on top.
package workflow
