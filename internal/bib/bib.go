// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bib loads BibTeX files and normalizes raw records into canonical
// BibEntry lookup keys. Parsing itself is delegated to nickng/bibtex; this
// package only flattens records and applies the normalization rules.
package bib

import (
	"fmt"
	"os"
	"strings"

	"github.com/nickng/bibtex"
)

// RawEntry is one parsed bibliography record before normalization: the cite
// key plus a field-name-to-string mapping. Field presence is not guaranteed.
type RawEntry struct {
	Key    string
	Fields map[string]string
}

// Load parses a BibTeX file into raw entries, preserving file order.
// A parse failure is a configuration error and aborts the run.
func Load(path string) ([]RawEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bibliography %s: %w", path, err)
	}
	defer f.Close()

	parsed, err := bibtex.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing bibliography %s: %w", path, err)
	}

	entries := make([]RawEntry, 0, len(parsed.Entries))
	for _, e := range parsed.Entries {
		fields := make(map[string]string, len(e.Fields))
		for name, value := range e.Fields {
			fields[strings.ToLower(name)] = value.String()
		}
		entries = append(entries, RawEntry{Key: e.CiteName, Fields: fields})
	}
	return entries, nil
}
