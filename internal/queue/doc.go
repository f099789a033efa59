// Package queue persists episodes, their recommendations, and per-run
// processing metrics in SQLite. It is the system of record: episode status
// transitions go through compare-and-set updates here, and the scheduler's
// retry sweep is a single bounded UPDATE.
package queue
