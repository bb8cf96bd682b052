// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/bibliograph/pkg/types"
)

// unpaywallAPIBase is the Unpaywall DOI lookup endpoint. Declared as a var
// so tests can substitute an httptest server.
var unpaywallAPIBase = "https://api.unpaywall.org/v2/"

// unpaywallResponse captures the fields we need from an Unpaywall record.
type unpaywallResponse struct {
	BestOALocation *unpaywallLocation `json:"best_oa_location"`
}

// unpaywallLocation is one open-access location in the Unpaywall response.
type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
	URL       string `json:"url"`
}

// UnpaywallResolver looks up an open-access PDF location by DOI. Unpaywall
// requires a contact email as its polite-pool identifier.
type UnpaywallResolver struct {
	Client    *http.Client
	Email     string
	UserAgent string
}

func (r *UnpaywallResolver) Source() types.Source { return types.SourceUnpaywall }

func (r *UnpaywallResolver) Applicable(e types.BibEntry) bool { return e.DOI != "" }

// Resolve queries Unpaywall for the entry's DOI. A 404 or a record without
// an open-access location means no copy is known (ErrNoResult, terminal for
// this source); transport failures and server errors are transient.
func (r *UnpaywallResolver) Resolve(ctx context.Context, e types.BibEntry) (string, error) {
	apiURL := unpaywallAPIBase + url.PathEscape(e.DOI) + "?email=" + url.QueryEscape(r.Email)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating Unpaywall request: %w", err)
	}
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Unpaywall API request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("DOI %s not known to Unpaywall: %w", e.DOI, ErrNoResult)
	case resp.StatusCode != http.StatusOK:
		return "", &StatusError{Code: resp.StatusCode, URL: apiURL}
	}

	var up unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&up); err != nil {
		return "", fmt.Errorf("parsing Unpaywall response: %w", err)
	}

	if up.BestOALocation == nil {
		return "", fmt.Errorf("no open-access copy for DOI %s: %w", e.DOI, ErrNoResult)
	}
	if up.BestOALocation.URLForPDF != "" {
		return up.BestOALocation.URLForPDF, nil
	}
	// Some records only carry a landing URL; download validation decides
	// whether it actually serves a PDF.
	if up.BestOALocation.URL != "" {
		return up.BestOALocation.URL, nil
	}
	return "", fmt.Errorf("open-access location has no URL for DOI %s: %w", e.DOI, ErrNoResult)
}
