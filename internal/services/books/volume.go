package books

import (
	"net/url"
	"strings"
)

// Volume is the canonical metadata extracted from one catalog result.
type Volume struct {
	CatalogID     string
	Title         string
	Subtitle      string
	Authors       []string
	Publisher     string
	PublishedDate string
	Description   string
	PageCount     int
	ISBN10        string
	ISBN13        string
	ThumbnailURL  string
}

// Author joins the author list for display and matching.
func (v Volume) Author() string {
	return strings.Join(v.Authors, ", ")
}

// PublishedYear returns the leading year of the published date, or "" when
// the date is absent or malformed.
func (v Volume) PublishedYear() string {
	date := strings.TrimSpace(v.PublishedDate)
	if len(date) < 4 {
		return ""
	}
	year := date[:4]
	for _, r := range year {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return year
}

// CoverImageURL picks the best cover reference for the volume. Amazon's
// image CDN (keyed by ISBN-10) is preferred, Open Library next, and the
// catalog's own thumbnail last.
func (v Volume) CoverImageURL() string {
	isbn10 := v.ISBN10
	if isbn10 == "" {
		isbn10 = ISBN13To10(v.ISBN13)
	}
	if isbn10 != "" {
		return AmazonImageURL(isbn10)
	}
	if v.ISBN13 != "" {
		return OpenLibraryCoverURL(v.ISBN13)
	}
	if v.ThumbnailURL != "" {
		return strings.Replace(v.ThumbnailURL, "http://", "https://", 1)
	}
	return ""
}

// PurchaseURL builds an Amazon search link from the volume's title and
// first author.
func (v Volume) PurchaseURL() string {
	if v.Title == "" {
		return ""
	}
	query := v.Title
	if len(v.Authors) > 0 {
		query += " " + v.Authors[0]
	}
	return AmazonSearchURL(query)
}

// cleanISBN keeps digits and a trailing X.
func cleanISBN(isbn string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(isbn) {
		if (r >= '0' && r <= '9') || r == 'X' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ISBN13To10 converts a 978-prefixed ISBN-13 to its ISBN-10 form. 979
// ISBNs have no ISBN-10 equivalent and yield "".
func ISBN13To10(isbn13 string) string {
	clean := cleanISBN(isbn13)
	if len(clean) != 13 || !strings.HasPrefix(clean, "978") {
		return ""
	}
	base := clean[3:12]
	sum := 0
	for i, r := range base {
		if r < '0' || r > '9' {
			return ""
		}
		sum += int(r-'0') * (10 - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return base + "X"
	}
	return base + string(rune('0'+check))
}

// AmazonImageURL returns Amazon's cover image URL for an ISBN-10.
func AmazonImageURL(isbn10 string) string {
	return "https://images-na.ssl-images-amazon.com/images/P/" + cleanISBN(isbn10) + ".01._SCLZZZZZZZ_SX500_.jpg"
}

// OpenLibraryCoverURL returns the large Open Library cover for any ISBN.
func OpenLibraryCoverURL(isbn string) string {
	return "https://covers.openlibrary.org/b/isbn/" + cleanISBN(isbn) + "-L.jpg"
}

// AmazonSearchURL returns an Amazon search link for the given query.
func AmazonSearchURL(query string) string {
	return "https://www.amazon.com/s?k=" + url.QueryEscape(query)
}
