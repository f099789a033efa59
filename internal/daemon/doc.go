// Package daemon runs the scheduler as a long-lived background process with
// flock-based locking to prevent multiple concurrent instances against the
// same queue database.
package daemon
