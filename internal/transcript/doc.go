// Package transcript fetches and certifies episode transcripts.
//
// The verifier sorts timed segments, joins their text, detects gaps between
// adjacent segments, and decides completeness from segment count, character
// count, and gap ratio. Completeness is a hard gate: an incomplete transcript
// must never reach the chunker, and the episode fails with an
// incomplete_transcript reason instead.
package transcript
