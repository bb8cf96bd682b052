// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// teiDocument maps the parts of a GROBID TEI response the flattener uses.
// Element names match on local name only, so the TEI namespace is ignored.
type teiDocument struct {
	XMLName  xml.Name    `xml:"TEI"`
	Title    string      `xml:"teiHeader>fileDesc>titleStmt>title"`
	Authors  []teiAuthor `xml:"teiHeader>fileDesc>sourceDesc>biblStruct>analytic>author"`
	Abstract teiRaw      `xml:"teiHeader>profileDesc>abstract"`
	Body     teiBody     `xml:"text>body"`
	Back     teiBack     `xml:"text>back"`
}

type teiBody struct {
	Sections []teiSection `xml:"div"`
}

type teiBack struct {
	References []teiReference `xml:"div>listBibl>biblStruct"`
}

type teiSection struct {
	Head       string   `xml:"head"`
	Paragraphs []teiRaw `xml:"p"`
}

type teiAuthor struct {
	Forename string `xml:"persName>forename"`
	Surname  string `xml:"persName>surname"`
}

// Name joins forename and surname, tolerating either being absent.
func (a teiAuthor) Name() string {
	switch {
	case a.Forename != "" && a.Surname != "":
		return a.Forename + " " + a.Surname
	case a.Surname != "":
		return a.Surname
	default:
		return a.Forename
	}
}

type teiReference struct {
	Title        string      `xml:"analytic>title"`
	MonogrTitle  string      `xml:"monogr>title"`
	Authors      []teiAuthor `xml:"analytic>author"`
	MonogrAuthor []teiAuthor `xml:"monogr>author"`
	Date         teiDate     `xml:"monogr>imprint>date"`
}

type teiDate struct {
	When string `xml:"when,attr"`
}

// teiRaw captures an element's inner XML so mixed content (inline refs,
// formulas) can be reduced to its text.
type teiRaw struct {
	Inner []byte `xml:",innerxml"`
}

// Text returns the element's character data with markup stripped and
// whitespace normalized.
func (r teiRaw) Text() string {
	if len(r.Inner) == 0 {
		return ""
	}
	dec := xml.NewDecoder(bytes.NewReader(r.Inner))
	var parts []string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			if s := strings.TrimSpace(string(cd)); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, " ")
}

// FlattenTEI reduces a TEI XML document to readable structured text:
// title, author list, abstract, body sections, then numbered references.
func FlattenTEI(tei []byte) (string, error) {
	var doc teiDocument
	if err := xml.Unmarshal(tei, &doc); err != nil {
		return "", fmt.Errorf("parsing TEI: %w", err)
	}

	var b strings.Builder

	if t := strings.TrimSpace(doc.Title); t != "" {
		fmt.Fprintf(&b, "# %s\n\n", t)
	}

	if names := authorNames(doc.Authors); len(names) > 0 {
		fmt.Fprintf(&b, "## Authors\n%s\n\n", strings.Join(names, ", "))
	}

	if abs := doc.Abstract.Text(); abs != "" {
		fmt.Fprintf(&b, "## Abstract\n%s\n\n", abs)
	}

	b.WriteString("## Content\n\n")
	for _, sec := range doc.Body.Sections {
		head := strings.TrimSpace(sec.Head)
		if head == "" {
			head = "Unnamed Section"
		}
		fmt.Fprintf(&b, "### %s\n\n", head)

		var paras []string
		for _, p := range sec.Paragraphs {
			if t := p.Text(); t != "" {
				paras = append(paras, t)
			}
		}
		fmt.Fprintf(&b, "%s\n\n", strings.Join(paras, " "))
	}

	if len(doc.Back.References) > 0 {
		b.WriteString("## References\n\n")
		for i, ref := range doc.Back.References {
			b.WriteString(formatReference(i+1, ref))
			b.WriteByte('\n')
		}
	}

	return b.String(), nil
}

func authorNames(authors []teiAuthor) []string {
	var names []string
	for _, a := range authors {
		if n := a.Name(); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func formatReference(n int, ref teiReference) string {
	title := strings.TrimSpace(ref.Title)
	if title == "" {
		title = strings.TrimSpace(ref.MonogrTitle)
	}
	if title == "" {
		title = "Untitled"
	}

	authors := authorNames(ref.Authors)
	if len(authors) == 0 {
		authors = authorNames(ref.MonogrAuthor)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d. ", n)
	if len(authors) > 0 {
		fmt.Fprintf(&b, "%s. ", strings.Join(authors, ", "))
	}
	if len(ref.Date.When) >= 4 {
		fmt.Fprintf(&b, "(%s). ", ref.Date.When[:4])
	}
	fmt.Fprintf(&b, "%s.", title)
	return b.String()
}
