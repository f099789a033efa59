package extraction

import "strings"

// ItemType is the closed set of candidate categories. Oracle output uses a
// wider vocabulary (movie, tv_show, podcast, app, ...); ParseItemType folds
// it into these three.
type ItemType string

const (
	TypeBook  ItemType = "book"
	TypeMedia ItemType = "media"
	TypeOther ItemType = "other"
)

var mediaTypes = map[string]struct{}{
	"media":   {},
	"movie":   {},
	"tv_show": {},
	"tv":      {},
	"podcast": {},
	"music":   {},
	"album":   {},
}

// ParseItemType folds a raw oracle type tag into the closed ItemType set.
func ParseItemType(raw string) ItemType {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "book" {
		return TypeBook
	}
	if _, ok := mediaTypes[normalized]; ok {
		return TypeMedia
	}
	return TypeOther
}

// Candidate is one oracle-produced, unmerged recommendation mention.
type Candidate struct {
	Type          ItemType
	Title         string
	AuthorCreator string
	Context       string
	Quote         string
	Speaker       string
	Confidence    float64
	ChunkIndex    int
}

// rawCandidate mirrors the oracle's loose JSON shape before validation.
type rawCandidate struct {
	Type          string  `json:"type"`
	Title         string  `json:"title"`
	AuthorCreator string  `json:"author_creator"`
	Context       string  `json:"context"`
	Quote         string  `json:"quote"`
	Speaker       string  `json:"recommended_by"`
	Confidence    float64 `json:"confidence"`
}

// sanitize validates and defaults a raw oracle item at the boundary. Items
// without a usable title are dropped rather than propagated downstream.
func (r rawCandidate) sanitize(chunkIndex int) (Candidate, bool) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return Candidate{}, false
	}
	confidence := r.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Candidate{
		Type:          ParseItemType(r.Type),
		Title:         title,
		AuthorCreator: strings.TrimSpace(r.AuthorCreator),
		Context:       strings.TrimSpace(r.Context),
		Quote:         strings.TrimSpace(r.Quote),
		Speaker:       strings.TrimSpace(r.Speaker),
		Confidence:    confidence,
		ChunkIndex:    chunkIndex,
	}, true
}
