// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/bibliograph/pkg/types"
)

// validPDFBody is a fake PDF large enough to pass the size threshold.
var validPDFBody = "%PDF-1.4\n" + strings.Repeat("x", 2*minPDFSize)

const htmlBody = `<!DOCTYPE html><html><body>Please log in to view this article.</body></html>`

// overrideBaseURLs points the package-level API bases at the test server
// and returns a cleanup function that restores the originals.
func overrideBaseURLs(tsURL string) func() {
	origUnpaywall := unpaywallAPIBase
	origSemantic := semanticAPIBase
	origArxiv := arxivPDFBase

	unpaywallAPIBase = tsURL + "/unpaywall/"
	semanticAPIBase = tsURL + "/semantic/search"
	arxivPDFBase = tsURL + "/arxiv-pdf/"

	return func() {
		unpaywallAPIBase = origUnpaywall
		semanticAPIBase = origSemantic
		arxivPDFBase = origArxiv
	}
}

func TestResolverApplicability(t *testing.T) {
	resolvers := DefaultResolvers(http.DefaultClient, types.AcquisitionConfig{})

	tests := []struct {
		name  string
		entry types.BibEntry
		want  map[types.Source]bool
	}{
		{
			"doi only",
			types.BibEntry{DOI: "10.1/xyz"},
			map[types.Source]bool{
				types.SourceUnpaywall:   true,
				types.SourceDirectURL:   false,
				types.SourceArxiv:       false,
				types.SourceTitleSearch: false,
			},
		},
		{
			"title only",
			types.BibEntry{Title: "A Study"},
			map[types.Source]bool{
				types.SourceUnpaywall:   false,
				types.SourceDirectURL:   false,
				types.SourceArxiv:       false,
				types.SourceTitleSearch: true,
			},
		},
		{
			"everything",
			types.BibEntry{DOI: "10.1/x", ArxivID: "2301.00001", URLs: []string{"https://e.example/p.pdf"}, Title: "T T T"},
			map[types.Source]bool{
				types.SourceUnpaywall:   true,
				types.SourceDirectURL:   true,
				types.SourceArxiv:       true,
				types.SourceTitleSearch: true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, r := range resolvers {
				if got := r.Applicable(tt.entry); got != tt.want[r.Source()] {
					t.Errorf("%s.Applicable = %v, want %v", r.Source(), got, tt.want[r.Source()])
				}
			}
		})
	}
}

func TestUnpaywallResolve(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantURL   string
		wantErr   error
		transient bool
	}{
		{
			name:    "pdf url preferred",
			status:  http.StatusOK,
			body:    `{"best_oa_location": {"url_for_pdf": "https://oa.example/p.pdf", "url": "https://oa.example/landing"}}`,
			wantURL: "https://oa.example/p.pdf",
		},
		{
			name:    "landing url fallback",
			status:  http.StatusOK,
			body:    `{"best_oa_location": {"url": "https://oa.example/landing"}}`,
			wantURL: "https://oa.example/landing",
		},
		{
			name:    "no open-access copy",
			status:  http.StatusOK,
			body:    `{"best_oa_location": null}`,
			wantErr: ErrNoResult,
		},
		{
			name:    "unknown doi",
			status:  http.StatusNotFound,
			body:    `{"error": true}`,
			wantErr: ErrNoResult,
		},
		{
			name:      "server error is transient",
			status:    http.StatusInternalServerError,
			body:      "oops",
			transient: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("email"); got != "user@example.com" {
					t.Errorf("email param = %q", got)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()
			defer overrideBaseURLs(ts.URL)()

			r := &UnpaywallResolver{Client: ts.Client(), Email: "user@example.com"}
			got, err := r.Resolve(context.Background(), types.BibEntry{DOI: "10.1/xyz"})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if tt.transient {
				if err == nil || !transient(err) {
					t.Fatalf("err = %v, want transient error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if got != tt.wantURL {
				t.Errorf("Resolve = %q, want %q", got, tt.wantURL)
			}
		})
	}
}

func TestDirectURLResolve(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/pdf/"):
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, validPDFBody)
		case strings.HasPrefix(r.URL.Path, "/untyped-pdf/"):
			// No content type; the probe must fall back to magic bytes.
			fmt.Fprint(w, validPDFBody)
		case strings.HasPrefix(r.URL.Path, "/html/"):
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, htmlBody)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	r := &DirectURLResolver{Client: ts.Client()}

	t.Run("first pdf url wins", func(t *testing.T) {
		entry := types.BibEntry{URLs: []string{ts.URL + "/html/a", ts.URL + "/pdf/b", ts.URL + "/pdf/c"}}
		got, err := r.Resolve(context.Background(), entry)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if want := ts.URL + "/pdf/b"; got != want {
			t.Errorf("Resolve = %q, want %q", got, want)
		}
	})

	t.Run("magic bytes without content type", func(t *testing.T) {
		entry := types.BibEntry{URLs: []string{ts.URL + "/untyped-pdf/a"}}
		got, err := r.Resolve(context.Background(), entry)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if want := ts.URL + "/untyped-pdf/a"; got != want {
			t.Errorf("Resolve = %q, want %q", got, want)
		}
	})

	t.Run("all html yields no result", func(t *testing.T) {
		entry := types.BibEntry{URLs: []string{ts.URL + "/html/a", ts.URL + "/html/b"}}
		_, err := r.Resolve(context.Background(), entry)
		if !errors.Is(err, ErrNoResult) {
			t.Errorf("err = %v, want ErrNoResult", err)
		}
	})
}

func TestArxivResolve(t *testing.T) {
	// No server: the URL is derived, never looked up.
	r := &ArxivResolver{}
	got, err := r.Resolve(context.Background(), types.BibEntry{ArxivID: "2301.00001"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if want := arxivPDFBase + "2301.00001"; got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}

func TestTitleSearchResolve(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		title   string
		wantURL string
		wantErr error
	}{
		{
			name:    "close match with pdf",
			body:    `{"total": 1, "data": [{"paperId": "p1", "title": "A Study of Durable Widgets", "openAccessPdf": {"url": "https://oa.example/w.pdf"}}]}`,
			title:   "A Study of Durable Widgets",
			wantURL: "https://oa.example/w.pdf",
		},
		{
			name:    "wrong paper rejected by similarity",
			body:    `{"total": 1, "data": [{"paperId": "p1", "title": "Completely Different Topic Entirely", "openAccessPdf": {"url": "https://oa.example/x.pdf"}}]}`,
			title:   "A Study of Durable Widgets",
			wantErr: ErrNoResult,
		},
		{
			name:    "match without pdf link yields none",
			body:    `{"total": 1, "data": [{"paperId": "p1", "title": "A Study of Durable Widgets", "openAccessPdf": null}]}`,
			title:   "A Study of Durable Widgets",
			wantErr: ErrNoResult,
		},
		{
			name:    "no hits",
			body:    `{"total": 0, "data": []}`,
			title:   "A Study of Durable Widgets",
			wantErr: ErrNoResult,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if q := r.URL.Query().Get("query"); !strings.Contains(q, "Durable") {
					t.Errorf("query param = %q", q)
				}
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()
			defer overrideBaseURLs(ts.URL)()

			r := &TitleSearchResolver{Client: ts.Client()}
			got, err := r.Resolve(context.Background(), types.BibEntry{Title: tt.title})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if got != tt.wantURL {
				t.Errorf("Resolve = %q, want %q", got, tt.wantURL)
			}
		})
	}
}

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Attention Is All You Need", "Attention Is All You Need", 1.0},
		{"case and punctuation ignored", "attention is all you need!", "Attention Is All You Need", 1.0},
		{"disjoint", "Graph Neural Networks", "Quantum Error Correction", 0.0},
		{"empty", "", "Anything", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("TitleSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}

	t.Run("partial overlap between thresholds", func(t *testing.T) {
		got := TitleSimilarity("A Study of Widgets", "A Survey of Widgets")
		if got <= 0 || got >= 1 {
			t.Errorf("TitleSimilarity = %v, want strictly between 0 and 1", got)
		}
	})
}
