// Package captions fetches timed caption tracks for source videos. It is
// the transcript source behind the verifier.
package captions
