package llm

import (
	"fmt"
	"strings"
)

// extractionSystemPrompt instructs the model to surface only explicit
// recommendations and to answer with bare JSON.
const extractionSystemPrompt = `You are an expert at analyzing podcast transcripts and extracting recommendations.
Your task is to identify when a podcast guest or host explicitly recommends books, movies, TV shows, products, apps, or other resources.

Focus on clear recommendations, not just casual mentions. Look for phrases like:
- "I highly recommend..."
- "You should check out..."
- "My favorite book is..."
- "This changed my life..."
- "I use [product] every day..."

CRITICAL: You MUST return ONLY valid JSON. Do NOT include any explanatory text, markdown, or commentary.
Your entire response must be parseable JSON starting with { and ending with }.`

// strictReminder is appended after a malformed response.
const strictReminder = `

YOUR PREVIOUS RESPONSE WAS NOT VALID JSON. Respond again with ONLY the JSON object.
No markdown fences, no commentary, no text outside the JSON.`

const extractionSchema = `{
  "recommendations": [
    {
      "type": "book|movie|tv_show|podcast|product|app|website|course|other",
      "title": "exact title mentioned (not 'this book' or 'that movie')",
      "author_creator": "author or creator if mentioned (not 'not mentioned')",
      "context": "1-2 sentence summary of why it was recommended",
      "quote": "direct quote from transcript showing the recommendation",
      "confidence": 0.0-1.0,
      "recommended_by": "full real name of whoever recommended it"
    }
  ]
}`

// buildExtractionPrompt assembles the per-chunk user prompt. Participants are
// the names already known for the episode (from the title or earlier chunks);
// the model falls back to transcript introductions when the list is empty.
func buildExtractionPrompt(chunkText, episodeTitle string, participants []string, strict bool) string {
	known := "To be determined from transcript"
	if len(participants) > 0 {
		known = strings.Join(participants, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following podcast transcript and extract all recommendations.\n\n")
	fmt.Fprintf(&b, "Episode Title: %s\n", episodeTitle)
	fmt.Fprintf(&b, "Known Participants: %s\n\n", known)
	fmt.Fprintf(&b, "Transcript:\n%s\n\n", chunkText)
	b.WriteString(`CRITICAL INSTRUCTIONS FOR SPEAKER ATTRIBUTION:
1. Use the participant names above for all recommendations when they are provided.
2. If no participants are listed, look at the beginning of the transcript for introductions:
   - "Hi, I'm [Full Name]"
   - "My name is [Full Name]"
   - "I'm joined by [Full Name]"
   - "Today's guest is [Full Name]"
3. Extract the FULL NAME (first and last name), not just the first name.
4. NEVER use placeholder names like "Guest 1", "Guest 2", "Host", "Guest".
5. If you cannot determine a real full name, use "Unknown" and mark confidence as low.

For each recommendation found, return a JSON object with:
`)
	b.WriteString(extractionSchema)
	b.WriteString(`

CRITICAL REQUIREMENTS FOR BOOKS:
- title: Must be the actual book title, NOT "this book", "that book", "Not specified"
- author_creator: Must be the actual author name if mentioned, NOT "Not mentioned", "Not specified"
- If the book title is unclear or never stated, DO NOT include it

Guidelines:
- Only include items that were EXPLICITLY recommended or highly praised
- Exclude casual mentions or neutral references
- Mark confidence as:
  - High (0.9-1.0): clear, enthusiastic recommendation with exact title
  - Medium (0.6-0.9): likely recommendation, title mostly clear
  - Low (0.3-0.6): uncertain mention or unclear title

IMPORTANT: Return ONLY the JSON object. Your response must start with { and end with }. Nothing else.`)
	if strict {
		b.WriteString(strictReminder)
	}
	return b.String()
}
