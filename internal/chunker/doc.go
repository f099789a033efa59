// Package chunker splits verified transcripts into bounded, offset-tracked
// chunks for the size-limited extraction oracle. Chunks are gapless and
// non-overlapping; concatenating them reproduces the transcript byte for
// byte, which is the coverage invariant the orchestrator later re-checks.
package chunker
