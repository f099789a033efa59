package transcript

import (
	"sort"
	"strings"
)

// Thresholds control the completeness gate. Zero values fall back to the
// defaults matching the production quality bar.
type Thresholds struct {
	MinSegments         int
	MinCharacters       int
	MaxGapRatio         float64
	GapThresholdSeconds float64
}

const (
	defaultMinSegments   = 10
	defaultMinCharacters = 1000
	defaultMaxGapRatio   = 0.10
	defaultGapThreshold  = 2.0

	// Only the first few gaps are retained on the summary; beyond that the
	// count is what matters.
	maxRetainedGaps = 10
)

func (t Thresholds) withDefaults() Thresholds {
	if t.MinSegments <= 0 {
		t.MinSegments = defaultMinSegments
	}
	if t.MinCharacters <= 0 {
		t.MinCharacters = defaultMinCharacters
	}
	if t.MaxGapRatio <= 0 {
		t.MaxGapRatio = defaultMaxGapRatio
	}
	if t.GapThresholdSeconds <= 0 {
		t.GapThresholdSeconds = defaultGapThreshold
	}
	return t
}

// Verify sorts the segments, joins their text, and certifies completeness.
// videoDuration is the full media duration in seconds when known (zero when
// the source could not report it); it only affects CoveragePercent, never the
// completeness verdict.
func Verify(segments []Segment, videoDuration float64, thresholds Thresholds) VerifiedTranscript {
	thresholds = thresholds.withDefaults()

	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	parts := make([]string, 0, len(sorted))
	for _, seg := range sorted {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	text := strings.Join(parts, " ")

	summary := Verification{
		TotalSegments:  len(sorted),
		CharacterCount: len(text),
		WordCount:      len(strings.Fields(text)),
		VideoDuration:  videoDuration,
	}

	if len(sorted) > 0 {
		first := sorted[0]
		last := sorted[len(sorted)-1]
		summary.StartTime = first.Start
		summary.EndTime = last.End()
		summary.DurationCovered = last.End() - first.Start
	}

	for i := 0; i+1 < len(sorted); i++ {
		gap := sorted[i+1].Start - sorted[i].End()
		if gap > thresholds.GapThresholdSeconds {
			summary.GapsDetected++
			if len(summary.Gaps) < maxRetainedGaps {
				summary.Gaps = append(summary.Gaps, Gap{
					Position:   i,
					GapSeconds: gap,
					AtSeconds:  sorted[i].End(),
				})
			}
		}
	}

	if videoDuration > 0 {
		summary.CoveragePercent = summary.DurationCovered / videoDuration * 100
	}

	summary.IsComplete = summary.TotalSegments >= thresholds.MinSegments &&
		summary.CharacterCount >= thresholds.MinCharacters &&
		float64(summary.GapsDetected) < float64(summary.TotalSegments)*thresholds.MaxGapRatio

	return VerifiedTranscript{Text: text, Verification: summary}
}
