// Package textutil provides text processing utilities for title
// normalization and similarity.
//
// The primary use cases are:
//   - Normalizing titles into a canonical comparison form for deduplication
//   - Computing edit-distance similarity ratios for fuzzy title grouping
//   - Token fingerprints with cosine similarity for author matching
//
// The tokenization process lowercases text, splits on non-alphanumeric
// characters, and filters tokens shorter than 2 characters.
package textutil
