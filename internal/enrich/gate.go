package enrich

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"podshelf/internal/extraction"
	"podshelf/internal/logging"
	"podshelf/internal/recs"
	"podshelf/internal/services"
	"podshelf/internal/services/books"
	"podshelf/internal/textutil"
)

// Match acceptance thresholds against the catalog result. The catalog's top
// hit for a vague query can be a different work entirely, so the original
// title and author must resemble what came back.
const (
	titleMatchThreshold  = 0.70
	authorMatchThreshold = 0.60
	// Catalog feeds reorder leading articles ("Pragmatic Programmer, The"),
	// which edit distance punishes; token vectors ignore word order.
	titleTokenThreshold = 0.85
)

// MetadataOracle is the catalog lookup the gate depends on. A miss is
// services.ErrNotFound, never a hard failure.
type MetadataOracle interface {
	Lookup(ctx context.Context, title, authorHint string) (books.Volume, error)
}

// Gate enriches merged recommendations and decides display eligibility.
type Gate struct {
	oracle MetadataOracle
	logger *slog.Logger
}

// NewGate constructs an enrichment gate.
func NewGate(oracle MetadataOracle, logger *slog.Logger) *Gate {
	return &Gate{
		oracle: oracle,
		logger: logging.NewComponentLogger(logger, "enrich"),
	}
}

// EnrichAll enriches every recommendation in place and sets DisplayEligible.
// Lookup misses and mismatches leave enrichment empty; they are normal
// outcomes. Only context cancellation aborts the pass.
func (g *Gate) EnrichAll(ctx context.Context, recommendations []recs.Recommendation) error {
	for i := range recommendations {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.enrichOne(ctx, &recommendations[i])
		recommendations[i].DisplayEligible = Eligible(recommendations[i])
	}
	return nil
}

func (g *Gate) enrichOne(ctx context.Context, rec *recs.Recommendation) {
	if rec.Type != extraction.TypeBook {
		return
	}
	authorHint := rec.AuthorCreator
	if IsPlaceholder(authorHint) {
		// "not specified" and friends would poison the strict query.
		authorHint = ""
	}
	volume, err := g.oracle.Lookup(ctx, rec.Title, authorHint)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			g.logger.Warn("catalog lookup failed",
				logging.String("title", rec.Title),
				logging.Error(err),
			)
		}
		return
	}
	if !goodMatch(rec.Title, rec.AuthorCreator, volume) {
		g.logger.Debug("catalog result rejected as a mismatch",
			logging.String("wanted_title", rec.Title),
			logging.String("found_title", volume.Title),
		)
		return
	}

	rec.Book = &recs.Book{
		ISBN10:        volume.ISBN10,
		ISBN13:        volume.ISBN13,
		CatalogID:     volume.CatalogID,
		CoverImageURL: volume.CoverImageURL(),
		PurchaseURL:   volume.PurchaseURL(),
		Publisher:     volume.Publisher,
		PublishedYear: volume.PublishedYear(),
		PageCount:     volume.PageCount,
		Description:   volume.Description,
	}
	// The catalog's author spelling is canonical once the match is accepted.
	if author := volume.Author(); author != "" {
		rec.AuthorCreator = author
	}
}

// goodMatch verifies the catalog result is the same work the transcript
// mentioned. The title must be similar; the author only matters when the
// transcript named one.
func goodMatch(title, authorHint string, volume books.Volume) bool {
	wanted := textutil.NormalizeTitle(title)
	found := textutil.NormalizeTitle(volume.Title)
	if wanted == "" || found == "" {
		return false
	}
	if textutil.SimilarityRatio(wanted, found) < titleMatchThreshold {
		// Catalog titles often carry a subtitle the speaker omitted, or
		// shuffle the words of the one the speaker used.
		if !strings.HasPrefix(found, wanted) && !sameTitleTokens(wanted, found) {
			return false
		}
	}
	if authorHint == "" || IsPlaceholder(authorHint) {
		return true
	}
	wantedAuthor := textutil.NormalizeTitle(authorHint)
	foundAuthor := textutil.NormalizeTitle(volume.Author())
	if foundAuthor == "" {
		return false
	}
	if textutil.SimilarityRatio(wantedAuthor, foundAuthor) >= authorMatchThreshold {
		return true
	}
	// Partial match: the transcript may name only a surname.
	return textutil.ContainsToken(foundAuthor, wantedAuthor)
}

// sameTitleTokens compares titles as token frequency vectors, which
// accepts word-order rewrites edit distance rejects.
func sameTitleTokens(wanted, found string) bool {
	return textutil.CosineSimilarity(textutil.NewFingerprint(wanted), textutil.NewFingerprint(found)) >= titleTokenThreshold
}

var placeholders = map[string]struct{}{
	"":              {},
	"unknown":       {},
	"n/a":           {},
	"none":          {},
	"not specified": {},
	"not mentioned": {},
	"not available": {},
	"this book":     {},
	"that book":     {},
}

// IsPlaceholder reports whether a field value is a stand-in rather than a
// real title or name.
func IsPlaceholder(value string) bool {
	_, ok := placeholders[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

var genericSpeakerPattern = regexp.MustCompile(`(?i)^(guest|speaker)\s*\d*$|^host$|^unknown$`)

// genuineSpeaker reports whether any attributed speaker is a real name
// rather than a placeholder like "Guest 1" or "Host".
func genuineSpeaker(speakers []string) bool {
	for _, speaker := range speakers {
		trimmed := strings.TrimSpace(speaker)
		if trimmed == "" {
			continue
		}
		if !genericSpeakerPattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// Eligible applies the display completeness rule. Books must carry a
// non-placeholder title and author, a catalog identifier, a cover image,
// and a genuine speaker attribution. Media and other items need only a
// real title and a genuine speaker. Ineligible records are persisted but
// hidden from read surfaces.
func Eligible(rec recs.Recommendation) bool {
	if IsPlaceholder(rec.Title) {
		return false
	}
	if !genuineSpeaker(rec.Speakers) {
		return false
	}
	if rec.Type != extraction.TypeBook {
		return true
	}
	if IsPlaceholder(rec.AuthorCreator) {
		return false
	}
	if rec.Book == nil {
		return false
	}
	if rec.Book.CatalogID == "" && rec.Book.ISBN13 == "" && rec.Book.ISBN10 == "" {
		return false
	}
	if rec.Book.CoverImageURL == "" {
		return false
	}
	return true
}
