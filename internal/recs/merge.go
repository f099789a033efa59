package recs

import (
	"sort"
	"strings"

	"podshelf/internal/extraction"
	"podshelf/internal/textutil"
)

// fuzzyMergeThreshold is the normalized-title similarity above which two
// titles are treated as the same work. 0.90 absorbs pluralization and small
// transcription slips without conflating sequels.
const fuzzyMergeThreshold = 0.90

type group struct {
	key        string
	itemType   extraction.ItemType
	candidates []extraction.Candidate
}

// Merge collapses candidates referring to the same work into single
// recommendations. Grouping is by normalized title and type; a title within
// the fuzzy threshold of an existing group's key joins that group. The
// canonical title is the longest contributor, quotes and speakers are
// aggregated without duplicates, and confidence is the maximum across
// contributors. Merge is pure and deterministic, so merging its own output
// changes nothing.
func Merge(candidates []extraction.Candidate) []Recommendation {
	var groups []*group
	byKey := make(map[string]*group)

	for _, c := range candidates {
		key := textutil.NormalizeTitle(c.Title)
		if key == "" {
			continue
		}
		g := byKey[groupKey(key, c.Type)]
		if g == nil {
			g = fuzzyMatch(groups, key, c.Type)
		}
		if g == nil {
			g = &group{key: key, itemType: c.Type}
			groups = append(groups, g)
			byKey[groupKey(key, c.Type)] = g
		}
		g.candidates = append(g.candidates, c)
	}

	recommendations := make([]Recommendation, 0, len(groups))
	for _, g := range groups {
		recommendations = append(recommendations, g.collapse())
	}
	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].Confidence != recommendations[j].Confidence {
			return recommendations[i].Confidence > recommendations[j].Confidence
		}
		return recommendations[i].Title < recommendations[j].Title
	})
	return recommendations
}

func groupKey(normalized string, itemType extraction.ItemType) string {
	return string(itemType) + "\x00" + normalized
}

func fuzzyMatch(groups []*group, key string, itemType extraction.ItemType) *group {
	for _, g := range groups {
		if g.itemType != itemType {
			continue
		}
		if textutil.SimilarityRatio(g.key, key) >= fuzzyMergeThreshold {
			return g
		}
	}
	return nil
}

func (g *group) collapse() Recommendation {
	rec := Recommendation{Type: g.itemType, MentionCount: len(g.candidates)}
	seenQuotes := make(map[string]bool)
	seenSpeakers := make(map[string]bool)

	for _, c := range g.candidates {
		if title := strings.TrimSpace(c.Title); len(title) > len(rec.Title) {
			rec.Title = title
		}
		if len(c.AuthorCreator) > len(rec.AuthorCreator) {
			rec.AuthorCreator = c.AuthorCreator
		}
		if len(c.Context) > len(rec.Context) {
			rec.Context = c.Context
		}
		if c.Confidence > rec.Confidence {
			rec.Confidence = c.Confidence
		}
		if c.Quote != "" && !seenQuotes[c.Quote] {
			seenQuotes[c.Quote] = true
			rec.Quotes = append(rec.Quotes, c.Quote)
		}
		if c.Speaker != "" && !seenSpeakers[c.Speaker] {
			seenSpeakers[c.Speaker] = true
			rec.Speakers = append(rec.Speakers, c.Speaker)
		}
	}
	return rec
}

// Remerge converts merged recommendations back into candidates and merges
// again, proving the merge is idempotent.
func Remerge(recommendations []Recommendation) []Recommendation {
	var candidates []extraction.Candidate
	for _, rec := range recommendations {
		base := extraction.Candidate{
			Type:          rec.Type,
			Title:         rec.Title,
			AuthorCreator: rec.AuthorCreator,
			Context:       rec.Context,
			Confidence:    rec.Confidence,
		}
		if len(rec.Quotes) == 0 && len(rec.Speakers) == 0 {
			candidates = append(candidates, base)
			continue
		}
		n := len(rec.Quotes)
		if len(rec.Speakers) > n {
			n = len(rec.Speakers)
		}
		for i := 0; i < n; i++ {
			c := base
			if i < len(rec.Quotes) {
				c.Quote = rec.Quotes[i]
			}
			if i < len(rec.Speakers) {
				c.Speaker = rec.Speakers[i]
			}
			candidates = append(candidates, c)
		}
	}
	return Merge(candidates)
}
