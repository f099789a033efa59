package chunker

import "strings"

// Chunk is a contiguous byte range of a verified transcript sized for one
// extraction call. Offsets index into the original text.
type Chunk struct {
	Index       int
	StartOffset int
	EndOffset   int
	Text        string
}

// Len returns the chunk length in bytes.
func (c Chunk) Len() int {
	return c.EndOffset - c.StartOffset
}

// breakCandidates are preferred split points, in priority order: sentence
// endings first, then any whitespace.
var breakCandidates = []string{". ", "? ", "! ", " "}

// Split divides text into gapless, non-overlapping chunks of at most maxSize
// bytes. When the boundary would land mid-sentence, the split moves back to
// the nearest sentence ending or space within the look-back window, so words
// are never cut when avoidable.
//
// Invariants: the first chunk starts at 0, the last chunk ends at len(text),
// and chunk lengths sum to len(text).
func Split(text string, maxSize, lookback int) []Chunk {
	if text == "" {
		return nil
	}
	if maxSize <= 0 {
		maxSize = len(text)
	}
	if lookback < 0 || lookback >= maxSize {
		lookback = 0
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := start + maxSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = adjustBoundary(text, start, end, lookback)
		}
		chunks = append(chunks, Chunk{
			Index:       len(chunks),
			StartOffset: start,
			EndOffset:   end,
			Text:        text[start:end],
		})
		start = end
	}
	return chunks
}

// adjustBoundary moves a split point back to a break candidate within the
// look-back window. The returned offset is exclusive and always > start.
func adjustBoundary(text string, start, end, lookback int) int {
	windowStart := end - lookback
	if windowStart <= start {
		windowStart = start + 1
	}
	for _, candidate := range breakCandidates {
		idx := strings.LastIndex(text[windowStart:end], candidate)
		if idx < 0 {
			continue
		}
		// Split after the punctuation, before the following space.
		boundary := windowStart + idx + len(candidate) - 1
		if boundary > start {
			return boundary
		}
	}
	return end
}

// Coverage verifies the chunk list spans [0, length) without loss. A nil
// chunk list only covers a zero-length transcript.
func Coverage(chunks []Chunk, length int) bool {
	if len(chunks) == 0 {
		return length == 0
	}
	if chunks[0].StartOffset != 0 || chunks[len(chunks)-1].EndOffset != length {
		return false
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartOffset != chunks[i-1].EndOffset {
			return false
		}
	}
	return true
}
