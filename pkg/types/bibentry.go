// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the bibliograph pipeline:
// normalized bibliography entries, per-source resolution attempts, the
// acquisition manifest, and stage configuration.
package types

// BibEntry is the canonical lookup key set for one bibliography record.
// It is produced by normalization and never mutated downstream.
type BibEntry struct {
	// CitationKey is the entry's cite key from the bibliography file
	// (e.g. "vaswani2017attention"). It names the output PDF.
	CitationKey string `json:"citation_key" yaml:"citation_key"`

	// DOI is the lowercased DOI with any scheme prefix stripped
	// (e.g. "10.1038/s41586-024-07487-w"). Empty when the entry has none.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ArxivID is the bare arXiv identifier (e.g. "2301.07041"), extracted
	// from a dedicated field or found embedded in a URL or eprint field.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// URLs lists candidate download URLs in the order they appeared.
	URLs []string `json:"urls,omitempty" yaml:"urls,omitempty"`

	// Title is the entry title with whitespace collapsed and braces removed.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Authors lists the authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year, or zero when absent or unparseable.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`
}

// HasIdentifier reports whether the entry carries at least one field a
// resolver could act on. Entries without any are excluded at normalization.
func (e BibEntry) HasIdentifier() bool {
	return e.DOI != "" || e.ArxivID != "" || len(e.URLs) > 0 || e.Title != ""
}
