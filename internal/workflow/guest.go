package workflow

import (
	"regexp"
	"strings"
)

var (
	parentheticalPattern = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	withNamePattern      = regexp.MustCompile(`(?:with|w/)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	htmlEntityReplacer   = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&quot;", `"`)
)

// GuestFromTitle extracts a guest name from common episode title formats:
// "Topic | Guest Name (role)" and "Topic with Guest Name". Returns "" when
// no plausible name is found; the extraction prompt then falls back to
// transcript introductions.
func GuestFromTitle(title string) string {
	if idx := strings.Index(title, "|"); idx >= 0 {
		candidate := strings.TrimSpace(title[idx+1:])
		candidate = parentheticalPattern.ReplaceAllString(candidate, "")
		candidate = strings.TrimSpace(htmlEntityReplacer.Replace(candidate))
		if looksLikeName(candidate) {
			return candidate
		}
	}
	if match := withNamePattern.FindStringSubmatch(title); match != nil {
		return strings.TrimSpace(match[1])
	}
	return ""
}

func looksLikeName(candidate string) bool {
	if candidate == "" || len(candidate) >= 100 {
		return false
	}
	for _, r := range candidate {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
