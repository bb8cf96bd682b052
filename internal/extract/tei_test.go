// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"testing"
)

func TestFlattenTEI(t *testing.T) {
	text, err := FlattenTEI([]byte(sampleTEI))
	if err != nil {
		t.Fatalf("FlattenTEI returned error: %v", err)
	}

	checks := []string{
		"# A Study of Durable Widgets",
		"## Authors\nAlice Smith, Bob Jones",
		"## Abstract\nWidgets endure. We measure [1] how much.",
		"## Content",
		"### Introduction",
		"Durability matters. We show why.",
		"### Unnamed Section",
		"No heading here.",
		"## References",
		"1. Carol Lee. (2019). Prior Widget Work.",
	}
	for _, want := range checks {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	// Sections come after the abstract, references last.
	if strings.Index(text, "## Abstract") > strings.Index(text, "### Introduction") {
		t.Error("abstract should precede body sections")
	}
	if strings.Index(text, "### Introduction") > strings.Index(text, "## References") {
		t.Error("references should follow body sections")
	}
}

func TestFlattenTEIMalformed(t *testing.T) {
	if _, err := FlattenTEI([]byte("<TEI><unclosed>")); err == nil {
		t.Error("expected parse error for malformed XML")
	}
}

func TestFlattenTEIEmptyDocument(t *testing.T) {
	text, err := FlattenTEI([]byte(`<TEI xmlns="http://www.tei-c.org/ns/1.0"><teiHeader/><text><body/></text></TEI>`))
	if err != nil {
		t.Fatalf("FlattenTEI returned error: %v", err)
	}
	if !strings.Contains(text, "## Content") {
		t.Errorf("even an empty document gets a content heading:\n%s", text)
	}
	if strings.Contains(text, "## References") {
		t.Error("no references section expected for empty document")
	}
}
