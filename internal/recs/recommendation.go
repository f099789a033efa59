package recs

import "podshelf/internal/extraction"

// Book holds catalog enrichment for book recommendations.
type Book struct {
	ISBN10        string
	ISBN13        string
	CatalogID     string
	CoverImageURL string
	PurchaseURL   string
	Publisher     string
	PublishedYear string
	PageCount     int
	Description   string
}

// Media holds the lighter enrichment used for non-book media.
type Media struct {
	ReleaseYear string
	PosterURL   string
	Rating      float64
}

// Recommendation is one merged, possibly enriched item for an episode.
// Enrichment payloads are populated by type: Book for book items, Media for
// media items, neither for other.
type Recommendation struct {
	Type            extraction.ItemType
	Title           string
	AuthorCreator   string
	Context         string
	Quotes          []string
	Speakers        []string
	Confidence      float64
	MentionCount    int
	DisplayEligible bool

	Book  *Book
	Media *Media
}
