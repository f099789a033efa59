// Package recs defines the merged recommendation model and the pure
// deduplication pass that turns raw extraction candidates into it.
package recs
