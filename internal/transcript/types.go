package transcript

import "context"

// Segment is one timed caption fragment. Immutable once fetched.
type Segment struct {
	Text     string
	Start    float64
	Duration float64
}

// End returns the segment's end offset in seconds.
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// Gap records a discontinuity between two adjacent segments.
type Gap struct {
	Position   int
	GapSeconds float64
	AtSeconds  float64
}

// Verification summarizes the completeness checks run over a segment list.
type Verification struct {
	TotalSegments   int
	CharacterCount  int
	WordCount       int
	StartTime       float64
	EndTime         float64
	DurationCovered float64
	VideoDuration   float64
	CoveragePercent float64
	GapsDetected    int
	Gaps            []Gap
	IsComplete      bool
}

// VerifiedTranscript is the joined transcript text plus its verification
// summary. Callers must not chunk a transcript whose summary reports
// IsComplete == false.
type VerifiedTranscript struct {
	Text         string
	Verification Verification
}

// Source fetches timed caption segments for one episode. Implementations make
// no ordering guarantee; the verifier sorts. A missing or disabled transcript
// is reported via services.ErrNotFound.
type Source interface {
	Fetch(ctx context.Context, videoID string) ([]Segment, float64, error)
}
