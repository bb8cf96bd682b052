// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"io/fs"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pdiddy/bibliograph/pkg/types"
)

// minTitlePrefixLen guards the title heuristic: a prefix shorter than this
// is too generic to identify a paper.
const minTitlePrefixLen = 10

// ProbeLocalArchive searches a reference-manager storage folder for a PDF
// already matching the entry, by DOI substring first and then by the
// leading words of the title, the filename heuristics common reference
// managers use. It is a read-only filesystem probe: it never downloads and
// never writes. Returns the matching path and true, or "" and false.
func ProbeLocalArchive(root string, e types.BibEntry) (string, bool) {
	if root == "" {
		return "", false
	}

	doi := strings.ToLower(e.DOI)
	// DOIs contain slashes, which never survive into filenames; match the
	// dash-substituted form reference managers use as well.
	doiFlat := strings.ReplaceAll(doi, "/", "-")
	titlePrefix := titleMatchPrefix(e.Title)

	var found string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if !strings.HasSuffix(name, ".pdf") {
			return nil
		}
		if doi != "" && (strings.Contains(name, doi) || strings.Contains(name, doiFlat)) {
			found = path
			return fs.SkipAll
		}
		if titlePrefix != "" && strings.Contains(name, titlePrefix) {
			found = path
			return fs.SkipAll
		}
		return nil
	})

	if found == "" {
		return "", false
	}
	return found, true
}

// titleMatchPrefix returns the first three words of the cleaned title,
// lowercased, or "" when the result is too short to be specific.
func titleMatchPrefix(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	words := strings.Fields(b.String())
	if len(words) > 3 {
		words = words[:3]
	}
	prefix := strings.Join(words, " ")
	if len(prefix) < minTitlePrefixLen {
		return ""
	}
	return prefix
}
