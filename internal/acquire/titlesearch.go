// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/pdiddy/bibliograph/internal/httputil"
	"github.com/pdiddy/bibliograph/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,openAccessPdf"

// DefaultTitleSimilarity is the minimum token-set similarity for accepting
// a title-search match. Fuzzy search returns near-misses; below this the
// top hit is more likely a different paper than a retitled copy.
const DefaultTitleSimilarity = 0.85

// TitleSearchResolver queries Semantic Scholar with the entry title and
// accepts the top match only when its title is close enough to the entry's.
// A match without an open-access PDF link yields no result rather than a
// guess. This is the last and least precise source in the priority order.
type TitleSearchResolver struct {
	Client    *http.Client
	APIKey    string
	UserAgent string

	// Threshold overrides DefaultTitleSimilarity when positive.
	Threshold float64
}

func (r *TitleSearchResolver) Source() types.Source { return types.SourceTitleSearch }

func (r *TitleSearchResolver) Applicable(e types.BibEntry) bool { return e.Title != "" }

func (r *TitleSearchResolver) Resolve(ctx context.Context, e types.BibEntry) (string, error) {
	query := e.Title
	if len(e.Authors) > 0 {
		query += " " + e.Authors[0]
	}

	params := url.Values{
		"query":  {query},
		"limit":  {"1"},
		"fields": {semanticFields},
	}
	reqURL := semanticAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("User-Agent", r.UserAgent)
	if r.APIKey != "" {
		req.Header.Set("x-api-key", r.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, r.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("title search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, URL: semanticAPIBase}
	}

	var sr semanticSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("parsing search response: %w", err)
	}

	if len(sr.Data) == 0 {
		return "", fmt.Errorf("no search hits for title %q: %w", e.Title, ErrNoResult)
	}

	top := sr.Data[0]
	threshold := r.Threshold
	if threshold <= 0 {
		threshold = DefaultTitleSimilarity
	}
	if sim := TitleSimilarity(e.Title, top.Title); sim < threshold {
		return "", fmt.Errorf("top hit %q scores %.2f against %q (threshold %.2f): %w",
			top.Title, sim, e.Title, threshold, ErrNoResult)
	}

	if top.OpenAccessPDF == nil || top.OpenAccessPDF.URL == "" {
		return "", fmt.Errorf("matched paper has no open-access PDF link: %w", ErrNoResult)
	}
	return top.OpenAccessPDF.URL, nil
}

// Semantic Scholar API JSON structures.
type semanticSearchResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string             `json:"paperId"`
	Title         string             `json:"title"`
	OpenAccessPDF *semanticOpenAccess `json:"openAccessPdf"`
}

type semanticOpenAccess struct {
	URL string `json:"url"`
}

// TitleSimilarity returns the token-set overlap between two titles as the
// Jaccard index over normalized word sets: 1.0 for identical sets, 0.0 for
// disjoint ones. Case and punctuation are ignored.
func TitleSimilarity(a, b string) float64 {
	sa := tokenSet(a)
	sb := tokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}

	inter := 0
	for tok := range sa {
		if sb[tok] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	set := make(map[string]bool)
	for _, tok := range strings.Fields(b.String()) {
		set[tok] = true
	}
	return set
}
