// Package books queries the Google Books volumes API for canonical book
// metadata: ISBNs, covers, and purchase links. Absence of a match is a
// normal outcome, not a failure.
package books
