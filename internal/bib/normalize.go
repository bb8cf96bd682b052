// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bib

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/bibliograph/pkg/types"
)

// ErrMalformedEntry marks a record with no identifying field at all
// (no DOI, arXiv ID, URL, or title). Such entries are excluded before
// they reach the orchestrator.
var ErrMalformedEntry = errors.New("entry has no identifying field")

// doiPrefixes lists the scheme prefixes stripped from DOI fields.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// arxivIDPattern matches modern arXiv identifiers, optionally versioned,
// anywhere inside a field value (e.g. "arXiv:2301.07041v2",
// "https://arxiv.org/abs/2301.07041").
var arxivIDPattern = regexp.MustCompile(`(\d{4}\.\d{4,5})(?:v\d+)?`)

// urlFields lists the record fields that may carry download URLs, in
// probe order.
var urlFields = []string{"url", "link", "pdf", "file"}

// Normalize converts one raw record into a canonical BibEntry. It trims
// whitespace, strips DOI scheme prefixes, extracts an arXiv ID from a
// dedicated field or embedded in a URL/eprint value, and splits multi-URL
// fields preserving order. It performs no network access.
//
// Normalize returns ErrMalformedEntry when the record carries no DOI,
// arXiv ID, URL, or title.
func Normalize(raw RawEntry) (types.BibEntry, error) {
	e := types.BibEntry{
		CitationKey: strings.TrimSpace(raw.Key),
		DOI:         normalizeDOI(raw.Fields["doi"]),
		Title:       cleanTitle(raw.Fields["title"]),
		Authors:     splitAuthors(raw.Fields["author"]),
		URLs:        collectURLs(raw.Fields),
	}

	if y, err := strconv.Atoi(strings.TrimSpace(raw.Fields["year"])); err == nil {
		e.Year = y
	}

	e.ArxivID = findArxivID(raw.Fields)

	if !e.HasIdentifier() {
		return types.BibEntry{}, fmt.Errorf("entry %q: %w", e.CitationKey, ErrMalformedEntry)
	}
	return e, nil
}

func normalizeDOI(raw string) string {
	doi := strings.ToLower(strings.TrimSpace(raw))
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(doi, prefix) {
			doi = doi[len(prefix):]
			break
		}
	}
	return strings.TrimSpace(doi)
}

// findArxivID looks for an arXiv identifier in the dedicated eprint and
// arxivid fields first, then embedded in URL-bearing fields. Fields that
// do not mention arXiv are not pattern-matched, so a DOI like
// "10.1234/5678.9012" is never misread as an arXiv ID.
func findArxivID(fields map[string]string) string {
	for _, name := range []string{"eprint", "arxivid", "arxiv"} {
		v := strings.TrimSpace(fields[name])
		if v == "" {
			continue
		}
		if m := arxivIDPattern.FindStringSubmatch(v); m != nil {
			return m[1]
		}
	}

	for _, name := range []string{"url", "doi", "note", "journal"} {
		v := fields[name]
		if !strings.Contains(strings.ToLower(v), "arxiv") {
			continue
		}
		if m := arxivIDPattern.FindStringSubmatch(v); m != nil {
			return m[1]
		}
	}
	return ""
}

// collectURLs gathers candidate URLs from every URL-bearing field,
// splitting multi-URL values on whitespace and semicolons and keeping
// only http(s) URLs, in original order without duplicates.
func collectURLs(fields map[string]string) []string {
	var urls []string
	seen := make(map[string]bool)

	for _, name := range urlFields {
		value := strings.TrimSpace(fields[name])
		if value == "" {
			continue
		}
		for _, part := range strings.FieldsFunc(value, func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\n' || r == ';'
		}) {
			u := strings.Trim(part, "{}")
			if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				continue
			}
			if seen[u] {
				continue
			}
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}

// cleanTitle strips BibTeX braces and collapses whitespace.
func cleanTitle(raw string) string {
	title := strings.NewReplacer("{", "", "}", "").Replace(raw)
	return strings.Join(strings.Fields(title), " ")
}

// splitAuthors splits a BibTeX author field on the "and" keyword.
func splitAuthors(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var authors []string
	for _, a := range strings.Split(raw, " and ") {
		a = strings.Join(strings.Fields(strings.Trim(a, "{}")), " ")
		if a != "" {
			authors = append(authors, a)
		}
	}
	return authors
}

// NormalizeAll normalizes every raw entry, partitioning the output into
// resolvable entries and malformed records.
func NormalizeAll(raws []RawEntry) ([]types.BibEntry, []types.MalformedEntry) {
	var entries []types.BibEntry
	var malformed []types.MalformedEntry

	for _, raw := range raws {
		e, err := Normalize(raw)
		if err != nil {
			malformed = append(malformed, types.MalformedEntry{
				Key:    raw.Key,
				Reason: err.Error(),
			})
			continue
		}
		entries = append(entries, e)
	}
	return entries, malformed
}
